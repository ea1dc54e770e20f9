package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/logger"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/slug"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/storage"
	"github.com/gamedex-hq/gamedex-catalog-sync/pkg/catalog"
)

// CatalogSource is the slice of the catalog client the engine depends on.
type CatalogSource interface {
	Search(ctx context.Context, query string, limit, offset int) ([]catalog.RawRecord, error)
	SearchAll(ctx context.Context, query string, maxResults int) ([]catalog.RawRecord, error)
	ListByCriteria(ctx context.Context, crit catalog.Criteria) ([]catalog.RawRecord, error)
	GetDetails(ctx context.Context, externalID int64) (*catalog.RawRecord, error)
}

// Engine orchestrates import flows: pull records from the catalog, merge them
// into local aggregates, allocate slugs, persist through the storage port.
// Processing is strictly sequential; each record is fully merged and persisted
// before the next, which bounds memory and keeps runs resumable: re-imported
// records re-match by external id and the merge is idempotent.
type Engine struct {
	client CatalogSource
	store  storage.GameStore
	slugs  *slug.Allocator
	log    logger.Logger
	now    func() time.Time
}

// New builds a sync engine.
func New(client CatalogSource, store storage.GameStore, slugs *slug.Allocator, log logger.Logger) *Engine {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if slugs == nil {
		slugs = slug.New(0, nil)
	}
	return &Engine{
		client: client,
		store:  store,
		slugs:  slugs,
		log:    log,
		now:    time.Now,
	}
}

// ImportBatch pulls records matching the criteria and merges each into the
// local store. Credential or page-level transport failures abort the batch
// (already-persisted records stay committed); per-record failures are logged
// and counted.
func (e *Engine) ImportBatch(ctx context.Context, crit catalog.Criteria) (*domain.ImportReport, error) {
	report := &domain.ImportReport{StartedAt: e.now().UTC()}

	records, err := e.client.ListByCriteria(ctx, crit)
	if err != nil {
		report.FinishedAt = e.now().UTC()
		return report, fmt.Errorf("list catalog records: %w", err)
	}

	e.importRecords(ctx, records, report)
	report.FinishedAt = e.now().UTC()
	return report, nil
}

// ImportBySearchTerm runs the per-record pipeline over a single query's
// results. Used for admin-triggered imports and as a safety net to guarantee
// named titles exist even when a criteria sweep misses them.
func (e *Engine) ImportBySearchTerm(ctx context.Context, term string, maxResults int) ([]*domain.Game, *domain.ImportReport, error) {
	report := &domain.ImportReport{StartedAt: e.now().UTC()}

	records, err := e.client.SearchAll(ctx, term, maxResults)
	if err != nil {
		report.FinishedAt = e.now().UTC()
		return nil, report, fmt.Errorf("search %q: %w", term, err)
	}

	games := e.importRecords(ctx, records, report)
	report.FinishedAt = e.now().UTC()
	return games, report, nil
}

// SearchResult is the transport-friendly record returned by the read-only
// search path.
type SearchResult struct {
	ExternalID  int64              `json:"external_id"`
	Title       string             `json:"title"`
	ReleaseDate *time.Time         `json:"release_date,omitempty"`
	Rating      *float64           `json:"rating,omitempty"`
	RatingCount *int64             `json:"rating_count,omitempty"`
	Category    string             `json:"category"`
	CoverURL    string             `json:"cover_url,omitempty"`
	Derived     map[string]float64 `json:"derived_ratings,omitempty"`
}

// SearchWithoutPersist fetches and shapes search results without touching the
// storage port. Results are de-duplicated by external id within the set.
func (e *Engine) SearchWithoutPersist(ctx context.Context, term string, maxResults int) ([]SearchResult, error) {
	records, err := e.client.SearchAll(ctx, term, maxResults)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(records))
	out := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		if rec.ID <= 0 {
			continue
		}
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}

		result := SearchResult{
			ExternalID:  rec.ID,
			Title:       rec.Name,
			ReleaseDate: rec.ReleaseDate(),
			Rating:      rec.TotalRating,
			RatingCount: rec.TotalRatingCount,
			Category:    domain.Category(rec.Category).String(),
			Derived:     rec.Derived,
		}
		if rec.Cover != nil {
			result.CoverURL = rec.Cover.URL
		}
		out = append(out, result)
	}
	return out, nil
}

// PurgeLowQuality removes aggregates whose vote count is below the threshold,
// cascading to owned media rows.
func (e *Engine) PurgeLowQuality(minVotes int64) (int, error) {
	removed, err := e.store.PurgeBelowVotes(minVotes)
	if err != nil {
		return 0, fmt.Errorf("purge below %d votes: %w", minVotes, err)
	}
	e.log.InfoObj("low quality purge completed", "purge_result", map[string]any{
		"min_votes": minVotes,
		"removed":   removed,
	})
	return removed, nil
}

// CleanupSlugs strips previously embedded numeric suffixes across the whole
// store and re-allocates clean slugs. Safe to run repeatedly: a pass over an
// already-clean dataset changes nothing.
func (e *Engine) CleanupSlugs() (int, error) {
	games, err := e.store.Games()
	if err != nil {
		return 0, fmt.Errorf("scan games: %w", err)
	}

	run := newRunSet(e.store)
	changed := 0
	for _, game := range games {
		cleaned, dirty, err := e.slugs.Cleanup(game.Slug, game.ExternalID, run.inUse)
		if err != nil {
			return changed, err
		}
		if !dirty {
			run.claim(game.Slug, game.ExternalID)
			continue
		}
		game.Slug = cleaned
		game.UpdatedAt = e.now().UTC()
		if err := e.store.Upsert(game); err != nil {
			return changed, fmt.Errorf("persist cleaned slug for %d: %w", game.ExternalID, err)
		}
		run.claim(cleaned, game.ExternalID)
		changed++
	}

	if changed > 0 {
		e.log.InfoObj("slug cleanup completed", "cleanup_result", map[string]any{
			"scanned": len(games),
			"changed": changed,
		})
	}
	return changed, nil
}

// importRecords runs the per-record merge pipeline. Returns the persisted
// aggregates in input order; failures are counted, never propagated.
func (e *Engine) importRecords(ctx context.Context, records []catalog.RawRecord, report *domain.ImportReport) []*domain.Game {
	run := newRunSet(e.store)
	out := make([]*domain.Game, 0, len(records))

	for _, rec := range records {
		select {
		case <-ctx.Done():
			e.log.WarnObj("import interrupted", "import_state", map[string]any{
				"processed": len(out),
				"remaining": len(records) - len(out),
			})
			return out
		default:
		}

		game, created, err := e.importOne(rec, run)
		if err != nil {
			report.Errors++
			e.log.ErrorObj("record import failed", "record_error", map[string]any{
				"external_id": rec.ID,
				"title":       rec.Name,
				"error":       err.Error(),
			})
			continue
		}
		if game == nil {
			report.Skipped++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
		out = append(out, game)
	}
	return out
}

// importOne merges one raw record into its local aggregate and persists it.
// A slug conflict from the store is recovered once by re-running allocation.
func (e *Engine) importOne(rec catalog.RawRecord, run *runSet) (*domain.Game, bool, error) {
	if rec.ID <= 0 || rec.Name == "" {
		return nil, false, nil
	}

	existing, err := e.store.FindByExternalID(rec.ID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve aggregate %d: %w", rec.ID, err)
	}

	game, created := e.merge(existing, rec)

	if game.Slug == "" {
		allocated, err := e.slugs.Generate(game.Title, game.ExternalID, run.inUse)
		if err != nil {
			return nil, false, fmt.Errorf("allocate slug: %w", err)
		}
		game.Slug = allocated
	}

	if err := e.store.Upsert(game); err != nil {
		if !errors.Is(err, storage.ErrSlugConflict) {
			return nil, false, fmt.Errorf("persist aggregate %d: %w", game.ExternalID, err)
		}
		// Another aggregate claimed the slug since allocation; allocate a
		// fresh one and retry once.
		game.Slug = ""
		allocated, allocErr := e.slugs.Generate(game.Title, game.ExternalID, run.inUse)
		if allocErr != nil {
			return nil, false, fmt.Errorf("reallocate slug: %w", allocErr)
		}
		game.Slug = allocated
		if err := e.store.Upsert(game); err != nil {
			return nil, false, fmt.Errorf("persist aggregate %d after slug retry: %w", game.ExternalID, err)
		}
	}

	run.claim(game.Slug, game.ExternalID)
	return game, created, nil
}

// merge applies the upsert policy: volatile fields (rating, rating count,
// category, popularity timestamp, media counts) always refresh from upstream
// when present; curated fields (cover, screenshots, text metadata) only fill
// when locally absent.
func (e *Engine) merge(existing *domain.Game, rec catalog.RawRecord) (*domain.Game, bool) {
	now := e.now().UTC()
	created := existing == nil

	game := existing
	if created {
		game = &domain.Game{
			ExternalID: rec.ID,
			CreatedAt:  now,
		}
	}
	game.UpdatedAt = now

	if game.Title == "" {
		game.Title = rec.Name
	}
	if game.ReleaseDate == nil {
		game.ReleaseDate = rec.ReleaseDate()
	}
	if game.Developer == "" {
		game.Developer = rec.DeveloperName()
	}
	if game.Publisher == "" {
		game.Publisher = rec.PublisherName()
	}
	if game.AgeRating == "" {
		game.AgeRating = rec.AgeRatingLabel()
	}

	if len(rec.Platforms) > 0 {
		game.Platforms = catalog.Names(rec.Platforms)
	}
	if len(rec.Genres) > 0 {
		game.Genres = catalog.Names(rec.Genres)
	}
	if len(rec.GameModes) > 0 {
		game.GameModes = catalog.Names(rec.GameModes)
	}
	if len(rec.PlayerPerspectives) > 0 {
		game.Perspectives = catalog.Names(rec.PlayerPerspectives)
	}
	if len(rec.AlternativeNames) > 0 {
		game.AlternativeTitles = catalog.Names(rec.AlternativeNames)
	}

	// Volatile fields: always refresh when present upstream. Upstream
	// aggregates occasionally drift outside their domain, so force the
	// rating into [0,100] and the vote count to be non-negative before
	// they reach the store.
	if rec.TotalRating != nil {
		v := clampRating(*rec.TotalRating)
		game.TotalRating = &v
	}
	if rec.TotalRatingCount != nil {
		v := *rec.TotalRatingCount
		if v < 0 {
			v = 0
		}
		game.TotalRatingCount = &v
	}
	game.Category = domain.Category(rec.Category)
	game.LastPopularityUpdate = now

	// Curated media: only fill when locally absent so a manually fixed cover
	// is not clobbered by a noisier upstream value.
	if game.CoverURL == "" && rec.Cover != nil {
		game.CoverURL = rec.Cover.URL
	}
	if len(game.Screenshots) == 0 {
		shots := make([]domain.Screenshot, 0, len(rec.Screenshots))
		for _, s := range rec.Screenshots {
			shots = append(shots, domain.Screenshot{URL: s.URL})
		}
		game.AddScreenshots(shots)
	}

	// Artworks and videos are keyed by content, so re-adding is safe.
	arts := make([]domain.Artwork, 0, len(rec.Artworks))
	for _, a := range rec.Artworks {
		arts = append(arts, domain.Artwork{URL: a.URL})
	}
	game.AddArtworks(arts)

	videos := make([]domain.Video, 0, len(rec.Videos))
	for _, v := range rec.Videos {
		videos = append(videos, domain.Video{VideoID: v.VideoID, Name: v.Name})
	}
	game.AddVideos(videos)

	return game, created
}

func clampRating(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// runSet tracks slugs allocated during the current run on top of the store,
// so sequential allocations within one batch cannot collide.
type runSet struct {
	store     storage.GameStore
	allocated map[string]int64
}

func newRunSet(store storage.GameStore) *runSet {
	return &runSet{
		store:     store,
		allocated: make(map[string]int64),
	}
}

func (r *runSet) claim(slug string, owner int64) {
	if slug != "" {
		r.allocated[slug] = owner
	}
}

// inUse satisfies slug.InUse against both the in-run set and the store.
func (r *runSet) inUse(candidate string) (int64, bool, error) {
	if owner, ok := r.allocated[candidate]; ok {
		return owner, true, nil
	}
	game, err := r.store.FindBySlug(candidate)
	if err != nil {
		return 0, false, err
	}
	if game == nil {
		return 0, false, nil
	}
	return game.ExternalID, true, nil
}
