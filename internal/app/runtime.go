package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/config"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/dedupe"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/logger"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/slug"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/storage"
	syncengine "github.com/gamedex-hq/gamedex-catalog-sync/internal/sync"
	"github.com/gamedex-hq/gamedex-catalog-sync/pkg/catalog"
	"github.com/gamedex-hq/gamedex-catalog-sync/pkg/jobs"
	"github.com/gamedex-hq/gamedex-catalog-sync/pkg/publishers"
)

// Runtime wires together the catalog client, sync engine, job registry and
// report publishers from config files.
type Runtime struct {
	cfg      *config.Config
	jobsReg  *jobs.Registry
	fanout   *publishers.Fanout
	engine   *syncengine.Engine
	store    storage.GameStore
	resolver *dedupe.Resolver
	log      logger.Logger
}

// NewRuntime builds the shared runtime from config files.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	jobsReg, err := jobs.LoadRegistry(cfg.JobsFile)
	if err != nil {
		return nil, fmt.Errorf("load jobs registry: %w", err)
	}
	jobList := jobsReg.All()
	jobIDs := make([]string, 0, len(jobList))
	for _, job := range jobList {
		jobIDs = append(jobIDs, job.ID)
	}
	log.InfoObj("jobs registry loaded", "jobs_meta", map[string]any{
		"count": len(jobIDs),
		"ids":   jobIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubRegistry := publishers.DefaultRegistry()
	pubClients, err := publishers.BuildAll(ctx, pubRegistry, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients, log)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.StoragePath,
	})

	weights := catalog.DefaultRatingWeights()
	if cfg.RatingWeightsFile != "" {
		weights, err = catalog.LoadRatingWeights(cfg.RatingWeightsFile)
		if err != nil {
			return nil, fmt.Errorf("load rating weights: %w", err)
		}
	}

	tokens := catalog.NewTokenSource(catalog.TokenOptions{
		AuthURL:      cfg.CatalogAuthURL,
		ClientID:     cfg.CatalogClientID,
		ClientSecret: cfg.CatalogClientSecret,
		TTL:          cfg.TokenTTL,
	})
	client := catalog.New(catalog.Options{
		BaseURL:   cfg.CatalogBaseURL,
		ClientID:  cfg.CatalogClientID,
		Tokens:    tokens,
		PageSize:  cfg.PageSize,
		PageDelay: cfg.PageDelay,
		Weights:   weights,
	}, log)

	var rules []string
	if cfg.DedupePatternsFile != "" {
		rules, err = dedupe.LoadRules(cfg.DedupePatternsFile)
		if err != nil {
			return nil, fmt.Errorf("load dedupe patterns: %w", err)
		}
	}
	resolver, err := dedupe.NewResolver(rules)
	if err != nil {
		return nil, fmt.Errorf("compile dedupe patterns: %w", err)
	}

	allocator := slug.New(cfg.SlugProbeAttempts, nil)
	engine := syncengine.New(client, store, allocator, log)

	return &Runtime{
		cfg:      cfg,
		jobsReg:  jobsReg,
		fanout:   fanout,
		engine:   engine,
		store:    store,
		resolver: resolver,
		log:      log,
	}, nil
}

// Engine exposes the sync engine for callers needing direct operations.
func (r *Runtime) Engine() *syncengine.Engine {
	return r.engine
}

// Resolver exposes the dedupe resolver used for ranked-list construction.
func (r *Runtime) Resolver() *dedupe.Resolver {
	return r.resolver
}

// RunJob executes one job by definition and returns its report.
func (r *Runtime) RunJob(ctx context.Context, job jobs.Job) (domain.ImportReport, error) {
	switch job.Type {
	case jobs.TypeSweep:
		crit := catalog.Criteria{
			MinVotes:  job.Sweep.MinVotes,
			MinRating: job.Sweep.MinRating,
			Limit:     job.Sweep.Limit,
		}
		if window := job.Sweep.SinceWindow(); window > 0 {
			since := time.Now().UTC().Add(-window)
			crit.Since = &since
		}
		report, err := r.engine.ImportBatch(ctx, crit)
		if report == nil {
			report = &domain.ImportReport{}
		}
		report.JobID = job.ID
		return *report, err

	case jobs.TypeSearch:
		combined := domain.ImportReport{JobID: job.ID}
		for _, term := range job.Search.Terms {
			_, report, err := r.engine.ImportBySearchTerm(ctx, term, job.Search.MaxResults)
			if report != nil {
				combined.Merge(*report)
			}
			if err != nil {
				return combined, err
			}
		}
		return combined, nil

	case jobs.TypePurge:
		report := domain.ImportReport{JobID: job.ID, StartedAt: time.Now().UTC()}
		removed, err := r.engine.PurgeLowQuality(job.Purge.MinVotes)
		report.Purged = removed
		report.FinishedAt = time.Now().UTC()
		return report, err

	default:
		return domain.ImportReport{JobID: job.ID}, fmt.Errorf("unsupported job type %q", job.Type)
	}
}

// RunJobByID resolves a job by id and executes it.
func (r *Runtime) RunJobByID(ctx context.Context, id string) (domain.ImportReport, error) {
	job, ok := r.jobsReg.ByID(id)
	if !ok {
		return domain.ImportReport{}, fmt.Errorf("unknown job %q", id)
	}
	return r.RunJob(ctx, job)
}

// TopRanked returns the best num aggregates ranked by rating, then votes,
// with title variants collapsed to their best-ranked member. Read-only.
func (r *Runtime) TopRanked(num int) ([]*domain.Game, error) {
	games, err := r.store.Games()
	if err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}

	sort.SliceStable(games, func(i, j int) bool {
		ri, rj := ratingOf(games[i]), ratingOf(games[j])
		if ri != rj {
			return ri > rj
		}
		return votesOf(games[i]) > votesOf(games[j])
	})

	deduped := r.resolver.Dedupe(games)
	if num > 0 && len(deduped) > num {
		deduped = deduped[:num]
	}
	return deduped, nil
}

func ratingOf(g *domain.Game) float64 {
	if g.TotalRating == nil {
		return -1
	}
	return *g.TotalRating
}

func votesOf(g *domain.Game) int64 {
	if g.TotalRatingCount == nil {
		return -1
	}
	return *g.TotalRatingCount
}

// publishReport fans the job report out to the configured sinks.
func (r *Runtime) publishReport(ctx context.Context, job jobs.Job, report domain.ImportReport) {
	delivered, err := r.fanout.Publish(ctx, publishers.NewEvent(job.ID, job.Name, report))
	if err != nil {
		r.log.WarnObj("report delivery incomplete", "report_delivery", map[string]any{
			"job_id":    job.ID,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
}

// Close releases the storage backend.
func (r *Runtime) Close() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err)
	}
}
