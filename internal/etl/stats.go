package etl

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// RunStats accumulates counters for one pipeline run. It is owned by the
// run coordinator and threaded explicitly through the pipeline; there is
// no ambient global state.
type RunStats struct {
	ActionsCreated  int
	TeamsUpserted   int
	PlayersUpserted int
	GamesUpserted   int

	EventsInserted int
	EventsUpdated  int
	EventsSkipped  int

	ShotRows     int
	PassRows     int
	TurnoverRows int

	Warnings      int
	ParseErrors   int
	BatchFailures int
	Retries       int

	StartTime time.Time
}

// NewRunStats returns stats with the clock started
func NewRunStats() *RunStats {
	return &RunStats{StartTime: time.Now()}
}

// EventsProcessed returns the total number of events that reached the
// upsert engine, regardless of outcome.
func (s *RunStats) EventsProcessed() int {
	return s.EventsInserted + s.EventsUpdated + s.EventsSkipped
}

// HadErrors reports whether any record or batch level failure occurred,
// for the loader's strict exit code.
func (s *RunStats) HadErrors() bool {
	return s.ParseErrors > 0 || s.BatchFailures > 0
}

// Elapsed returns the wall-clock duration since the run started
func (s *RunStats) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

// EventsPerSecond returns run throughput
func (s *RunStats) EventsPerSecond() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.EventsProcessed()) / elapsed
}

// Summary renders the human-readable end-of-run report
func (s *RunStats) Summary(dryRun bool) string {
	var b strings.Builder
	sep := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "\n%s\n", sep)
	fmt.Fprintf(&b, "ETL SUMMARY\n")
	fmt.Fprintf(&b, "%s\n", sep)
	fmt.Fprintf(&b, "Actions created: %d\n", s.ActionsCreated)
	fmt.Fprintf(&b, "Teams upserted: %d\n", s.TeamsUpserted)
	fmt.Fprintf(&b, "Players upserted: %d\n", s.PlayersUpserted)
	fmt.Fprintf(&b, "Games upserted: %d\n", s.GamesUpserted)
	fmt.Fprintf(&b, "Events processed: %d\n", s.EventsProcessed())
	fmt.Fprintf(&b, "Events inserted: %d\n", s.EventsInserted)
	fmt.Fprintf(&b, "Events updated: %d\n", s.EventsUpdated)
	fmt.Fprintf(&b, "Events skipped: %d\n", s.EventsSkipped)
	fmt.Fprintf(&b, "Shot events: %d\n", s.ShotRows)
	fmt.Fprintf(&b, "Pass events: %d\n", s.PassRows)
	fmt.Fprintf(&b, "Turnover events: %d\n", s.TurnoverRows)
	fmt.Fprintf(&b, "Warnings emitted: %d\n", s.Warnings)
	fmt.Fprintf(&b, "Parse errors: %d\n", s.ParseErrors)
	fmt.Fprintf(&b, "Batch failures: %d\n", s.BatchFailures)
	fmt.Fprintf(&b, "Retry attempts: %d\n", s.Retries)
	fmt.Fprintf(&b, "Total time: %.2f seconds\n", s.Elapsed().Seconds())
	fmt.Fprintf(&b, "Events/second: %.2f\n", s.EventsPerSecond())

	if dryRun {
		fmt.Fprintf(&b, "Mode: DRY RUN - No data written\n")
	}

	fmt.Fprintf(&b, "%s\n", sep)
	return b.String()
}

// LogSummary emits the run counters as one structured log line
func (s *RunStats) LogSummary() {
	log.Info().
		Int("actions_created", s.ActionsCreated).
		Int("teams_upserted", s.TeamsUpserted).
		Int("players_upserted", s.PlayersUpserted).
		Int("games_upserted", s.GamesUpserted).
		Int("events_inserted", s.EventsInserted).
		Int("events_updated", s.EventsUpdated).
		Int("events_skipped", s.EventsSkipped).
		Int("shot_rows", s.ShotRows).
		Int("pass_rows", s.PassRows).
		Int("turnover_rows", s.TurnoverRows).
		Int("warnings", s.Warnings).
		Int("parse_errors", s.ParseErrors).
		Int("batch_failures", s.BatchFailures).
		Int("retries", s.Retries).
		Float64("events_per_second", s.EventsPerSecond()).
		Dur("elapsed", s.Elapsed()).
		Msg("ETL run complete")
}
