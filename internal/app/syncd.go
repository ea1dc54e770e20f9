package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/config"
	"github.com/gamedex-hq/gamedex-catalog-sync/internal/logger"
	"github.com/gamedex-hq/gamedex-catalog-sync/pkg/jobs"
)

// Daemon runs the configured job list on a fixed interval until stopped.
type Daemon struct {
	runtime  *Runtime
	interval time.Duration
	log      logger.Logger
}

// NewDaemon builds the sync daemon from config files.
func NewDaemon(ctx context.Context, cfg *config.Config, log logger.Logger) (*Daemon, error) {
	runtime, err := NewRuntime(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		runtime:  runtime,
		interval: cfg.SyncInterval,
		log:      runtime.log,
	}, nil
}

// Run starts the sync loop until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d == nil || d.runtime == nil {
		return fmt.Errorf("daemon is not initialized")
	}
	defer d.runtime.Close()

	enabled := d.runtime.jobsReg.Enabled()
	if len(enabled) == 0 {
		d.log.WarnObj("no jobs enabled; daemon idle", "jobs_file", d.runtime.cfg.JobsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	d.log.InfoObj("sync loop starting", "daemon_state", map[string]any{
		"jobs_count":       len(enabled),
		"publishers_count": d.runtime.fanout.Size(),
		"sync_interval":    d.interval.String(),
	})

	if err := d.runOnce(ctx); err != nil {
		d.log.ErrorObj("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.InfoObj("sync loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := d.runOnce(ctx); err != nil {
				d.log.ErrorObj("scheduled sync failed", "error", err)
			}
		}
	}
}

// runOnce executes every enabled job sequentially and publishes each report.
func (d *Daemon) runOnce(ctx context.Context) error {
	start := time.Now()
	enabled := d.runtime.jobsReg.Enabled()
	d.log.InfoObj("sync pass started", "sync_meta", map[string]any{
		"jobs_count": len(enabled),
		"started_at": start.UTC(),
	})

	var firstErr error
	for _, job := range enabled {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report, err := d.runtime.RunJob(ctx, job)
		if err != nil {
			d.log.ErrorObj("job failed", "job_error", map[string]any{
				"job_id": job.ID,
				"error":  err.Error(),
			})
			if firstErr == nil {
				firstErr = fmt.Errorf("job %s: %w", job.ID, err)
			}
		}
		d.runtime.publishReport(ctx, job, report)
	}

	d.log.InfoObj("sync pass completed", "sync_meta", map[string]any{
		"jobs_count": len(enabled),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return firstErr
}

// Jobs returns the loaded job definitions.
func (d *Daemon) Jobs() []jobs.Job {
	if d == nil || d.runtime == nil {
		return nil
	}
	return d.runtime.jobsReg.All()
}
