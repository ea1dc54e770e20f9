package storage

import (
	"fmt"
	"sync"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

// memoryStore implements GameStore in process memory. Used for tests and
// ephemeral runs.
type memoryStore struct {
	mu    sync.RWMutex
	games map[int64]*domain.Game
	slugs map[string]int64
}

// NewMemoryStore returns an empty in-memory GameStore.
func NewMemoryStore() GameStore {
	return &memoryStore{
		games: make(map[int64]*domain.Game),
		slugs: make(map[string]int64),
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) FindByExternalID(externalID int64) (*domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	game, ok := m.games[externalID]
	if !ok {
		return nil, nil
	}
	return cloneGame(game), nil
}

func (m *memoryStore) FindBySlug(slug string) (*domain.Game, error) {
	if slug == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.slugs[slug]
	if !ok {
		return nil, nil
	}
	game, ok := m.games[owner]
	if !ok {
		return nil, nil
	}
	return cloneGame(game), nil
}

func (m *memoryStore) Upsert(game *domain.Game) error {
	if game == nil {
		return fmt.Errorf("game must not be nil")
	}
	if game.ExternalID <= 0 {
		return fmt.Errorf("game external id must be positive")
	}
	if game.Slug == "" {
		return fmt.Errorf("game slug must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, taken := m.slugs[game.Slug]; taken && owner != game.ExternalID {
		return ErrSlugConflict
	}
	if prev, ok := m.games[game.ExternalID]; ok && prev.Slug != game.Slug {
		delete(m.slugs, prev.Slug)
	}
	m.games[game.ExternalID] = cloneGame(game)
	m.slugs[game.Slug] = game.ExternalID
	return nil
}

func (m *memoryStore) Games() ([]*domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Game, 0, len(m.games))
	for _, game := range m.games {
		out = append(out, cloneGame(game))
	}
	return out, nil
}

func (m *memoryStore) PurgeBelowVotes(minVotes int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, game := range m.games {
		if game.TotalRatingCount != nil && *game.TotalRatingCount >= minVotes {
			continue
		}
		delete(m.games, id)
		delete(m.slugs, game.Slug)
		removed++
	}
	return removed, nil
}

func cloneGame(game *domain.Game) *domain.Game {
	cp := *game
	cp.Platforms = append([]string(nil), game.Platforms...)
	cp.Genres = append([]string(nil), game.Genres...)
	cp.GameModes = append([]string(nil), game.GameModes...)
	cp.Perspectives = append([]string(nil), game.Perspectives...)
	cp.AlternativeTitles = append([]string(nil), game.AlternativeTitles...)
	cp.Screenshots = append([]domain.Screenshot(nil), game.Screenshots...)
	cp.Artworks = append([]domain.Artwork(nil), game.Artworks...)
	cp.Videos = append([]domain.Video(nil), game.Videos...)
	if game.TotalRating != nil {
		v := *game.TotalRating
		cp.TotalRating = &v
	}
	if game.TotalRatingCount != nil {
		v := *game.TotalRatingCount
		cp.TotalRatingCount = &v
	}
	if game.ReleaseDate != nil {
		v := *game.ReleaseDate
		cp.ReleaseDate = &v
	}
	return &cp
}
