package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtvision/backend/internal/metrics"
	"courtvision/backend/internal/models"
	"courtvision/backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// Pipeline steps selectable with the --only flag
const (
	StepActions = "actions"
	StepTeams   = "teams"
	StepPlayers = "players"
	StepGames   = "games"
	StepEvents  = "events"
	StepAll     = "all"
)

// DefaultBatchSize is the number of drafts committed per transaction
const DefaultBatchSize = 1000

// Options configures one pipeline run
type Options struct {
	RawDir    string
	DryRun    bool
	Limit     int
	BatchSize int
	Only      string
	Truncate  bool
	Since     *time.Time
	Until     *time.Time
	Resume    bool
	Strict    bool
	NoUpdate  bool
}

// Validate rejects configuration errors before the run begins
func (o *Options) Validate() error {
	switch o.Only {
	case StepActions, StepTeams, StepPlayers, StepGames, StepEvents, StepAll:
	default:
		return fmt.Errorf("invalid --only value: %q", o.Only)
	}

	if o.BatchSize < 0 {
		return fmt.Errorf("batch size must be positive, got %d", o.BatchSize)
	}

	if o.Since != nil && o.Until != nil && o.Since.After(*o.Until) {
		return fmt.Errorf("--since (%s) is after --until (%s)",
			o.Since.Format("2006-01-02"), o.Until.Format("2006-01-02"))
	}

	if o.Limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", o.Limit)
	}

	return nil
}

func (o *Options) batchSize() int {
	if o.BatchSize == 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

func (o *Options) runsActions() bool {
	return o.Only == StepActions || o.Only == StepAll
}

func (o *Options) runsDimensions() bool {
	switch o.Only {
	case StepTeams, StepPlayers, StepGames, StepAll:
		return true
	}
	return false
}

func (o *Options) runsEvents() bool {
	return o.Only == StepEvents || o.Only == StepAll
}

// Runner coordinates the pipeline: raw files are read once, dimensions
// and actions are loaded first, then events stream through the parser
// into batched upserts. A single Runner drives a single run; all mutable
// state lives in the run-owned stats and caches.
type Runner struct {
	db    *repository.Database
	opts  Options
	stats *RunStats
}

// NewRunner creates a runner for one pipeline run
func NewRunner(db *repository.Database, opts Options) *Runner {
	return &Runner{db: db, opts: opts, stats: NewRunStats()}
}

// Run executes the configured steps and returns the run statistics.
// Record-level problems never escalate past their batch and batch-level
// problems never escalate past the run unless strict mode is requested.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	if err := r.opts.Validate(); err != nil {
		return r.stats, err
	}

	raw, err := LoadRawData(r.opts.RawDir)
	if err != nil {
		return r.stats, err
	}

	log.Info().
		Str("raw_dir", r.opts.RawDir).
		Int("batch_size", r.opts.batchSize()).
		Bool("dry_run", r.opts.DryRun).
		Bool("no_update", r.opts.NoUpdate).
		Bool("resume", r.opts.Resume).
		Bool("strict", r.opts.Strict).
		Str("only", r.opts.Only).
		Int("raw_events", raw.EventCount()).
		Msg("Starting ETL run")

	if r.opts.Truncate && !r.opts.DryRun {
		if err := r.db.Events.TruncateFacts(ctx); err != nil {
			return r.stats, err
		}
	}

	var registry *Registry
	if r.opts.runsActions() {
		registry, err = LoadRegistry(ctx, r.db.Actions, r.opts.DryRun, r.stats)
	} else {
		registry, err = LoadRegistryFromExisting(ctx, r.db.Actions, r.stats)
	}
	if err != nil {
		return r.stats, fmt.Errorf("failed to load action registry: %w", err)
	}

	var dims *DimensionCache
	filter := DateFilter{Since: r.opts.Since, Until: r.opts.Until}
	switch {
	case r.opts.runsDimensions():
		dims, err = LoadDimensions(ctx, r.db, raw, filter, r.opts.DryRun, r.stats)
	case r.opts.runsEvents():
		dims, err = LoadExistingDimensions(ctx, r.db)
	}
	if err != nil {
		return r.stats, fmt.Errorf("failed to load dimensions: %w", err)
	}

	if r.opts.runsEvents() {
		if err := r.processEvents(ctx, raw, dims, registry); err != nil {
			return r.stats, err
		}
	}

	metrics.ParseWarningsTotal.Add(float64(r.stats.Warnings))
	r.stats.LogSummary()

	return r.stats, nil
}

// processEvents streams every embedded event record through the parser
// and flushes drafts to the upsert engine in batches.
func (r *Runner) processEvents(ctx context.Context, raw *RawData, dims *DimensionCache, registry *Registry) error {
	parser := NewParser(dims, registry, r.stats)
	batchSize := r.opts.batchSize()
	batch := make([]*models.EventDraft, 0, batchSize)

	processed := 0
	limitReached := false

	for i := range raw.Players {
		player := &raw.Players[i]
		groups := [][]models.RawEvent{player.Shots, player.Passes, player.Turnovers}

		for _, group := range groups {
			for j := range group {
				if r.opts.Limit > 0 && processed >= r.opts.Limit {
					limitReached = true
					break
				}
				processed++

				draft, err := parser.Parse(&group[j], player)
				if err != nil {
					if errors.Is(err, ErrGameNotLoaded) {
						r.stats.EventsSkipped++
						log.Debug().Err(err).Msg("Event skipped, game not loaded")
						continue
					}

					r.stats.ParseErrors++
					metrics.ParseErrorsTotal.Inc()
					log.Error().Err(err).Msg("Failed to parse event record")
					if r.opts.Strict {
						return fmt.Errorf("strict mode: %w", err)
					}
					continue
				}

				batch = append(batch, draft)
				if len(batch) >= batchSize {
					if err := r.flushBatch(ctx, batch); err != nil {
						return err
					}
					batch = batch[:0]
				}
			}
			if limitReached {
				break
			}
		}
		if limitReached {
			break
		}
	}

	if len(batch) > 0 {
		if err := r.flushBatch(ctx, batch); err != nil {
			return err
		}
	}

	return nil
}

// flushBatch commits one batch through the bounded-retry combinator. A
// batch failure after retries rolls back in full and, outside strict
// mode, lets the run continue with the next batch.
func (r *Runner) flushBatch(ctx context.Context, batch []*models.EventDraft) error {
	if r.opts.DryRun {
		r.stats.EventsSkipped += len(batch)
		return nil
	}

	opts := repository.UpsertOptions{
		UpdateExisting: !r.opts.NoUpdate,
		Resume:         r.opts.Resume,
	}

	// UpsertBatch mutates nothing outside its transaction, so replaying
	// the whole batch after a transient failure is safe.
	drafts := append([]*models.EventDraft(nil), batch...)

	start := time.Now()
	var result repository.BatchResult
	attempts, err := WithRetry(ctx, DefaultMaxRetries, DefaultBaseDelay, func() error {
		res, err := r.db.Events.UpsertBatch(ctx, drafts, opts)
		if err == nil {
			result = res
		}
		return err
	})

	r.stats.Retries += attempts - 1
	if attempts > 1 {
		metrics.BatchRetriesTotal.Add(float64(attempts - 1))
	}

	if err != nil {
		r.stats.BatchFailures++
		metrics.RecordBatch("failed", time.Since(start).Seconds())
		log.Error().Err(err).Int("batch_size", len(batch)).Msg("Batch failed after retries, rolled back")
		if r.opts.Strict {
			return fmt.Errorf("strict mode: batch failed: %w", err)
		}
		return nil
	}

	r.stats.EventsInserted += result.Inserted
	r.stats.EventsUpdated += result.Updated
	r.stats.EventsSkipped += result.Skipped
	r.stats.ShotRows += result.ShotRows
	r.stats.PassRows += result.PassRows
	r.stats.TurnoverRows += result.TurnoverRows

	metrics.RecordBatch("committed", time.Since(start).Seconds())
	metrics.RecordEvents(result.Inserted, result.Updated, result.Skipped)

	return nil
}
