package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

// Package storage provides the local game store abstraction used by the sync
// engine. The store is keyed by external id with a unique slug index.

// ErrSlugConflict indicates an upsert would violate slug uniqueness. The sync
// engine treats it as recoverable by re-running slug allocation.
var ErrSlugConflict = errors.New("storage: slug already owned by another game")

// GameStore persists reconciled game aggregates.
type GameStore interface {
	Close() error

	// FindByExternalID returns the aggregate for the upstream id, or
	// (nil, nil) when absent.
	FindByExternalID(externalID int64) (*domain.Game, error)

	// FindBySlug returns the aggregate owning the slug, or (nil, nil).
	FindBySlug(slug string) (*domain.Game, error)

	// Upsert creates or replaces the aggregate keyed by its external id,
	// keeping the slug index consistent. Returns ErrSlugConflict when the
	// slug belongs to a different aggregate.
	Upsert(game *domain.Game) error

	// Games returns all aggregates. Order is unspecified.
	Games() ([]*domain.Game, error)

	// PurgeBelowVotes deletes aggregates whose rating count is absent or
	// below minVotes, cascading to owned media. Returns the number removed.
	PurgeBelowVotes(minVotes int64) (int, error)
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string) (GameStore, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "memory":
		return NewMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}
