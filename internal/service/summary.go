package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"courtvision/backend/internal/cache"
	"courtvision/backend/internal/metrics"
	"courtvision/backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// Canonical action display names used as summary bucket keys. Any action
// name outside this set is folded into the UNKNOWN bucket.
var canonicalActionNames = []string{
	"Pick & Roll",
	"Isolation",
	"Post-up",
	"Off-Ball Screen",
	"UNKNOWN",
}

// ShotPoint is one plotted shot in a summary bucket
type ShotPoint struct {
	X          *float64   `json:"x"`
	Y          *float64   `json:"y"`
	ShotResult string     `json:"shot_result"`
	Points     int        `json:"points"`
	OccurredAt *time.Time `json:"occurred_at"`
	GameID     int        `json:"game_id"`
}

// PassPoint is one plotted pass in a summary bucket
type PassPoint struct {
	X              *float64   `json:"x"`
	Y              *float64   `json:"y"`
	TargetPlayerID *int       `json:"target_player_id"`
	OccurredAt     *time.Time `json:"occurred_at"`
	GameID         int        `json:"game_id"`
}

// TurnoverPoint is one plotted turnover in a summary bucket
type TurnoverPoint struct {
	X            *float64   `json:"x"`
	Y            *float64   `json:"y"`
	TurnoverType string     `json:"turnover_type"`
	OccurredAt   *time.Time `json:"occurred_at"`
	GameID       int        `json:"game_id"`
}

// BucketTotals aggregates one action bucket
type BucketTotals struct {
	Shots     int `json:"shots"`
	Makes     int `json:"makes"`
	Misses    int `json:"misses"`
	Passes    int `json:"passes"`
	Turnovers int `json:"turnovers"`
	Points    int `json:"points"`
}

// ActionBucket groups a player's events under one canonical action
type ActionBucket struct {
	Shots     []ShotPoint     `json:"shots"`
	Passes    []PassPoint     `json:"passes"`
	Turnovers []TurnoverPoint `json:"turnovers"`
	Totals    BucketTotals    `json:"totals"`
}

// Totals aggregates a player's events across all actions
type Totals struct {
	Points    int `json:"points"`
	Makes     int `json:"makes"`
	Misses    int `json:"misses"`
	Passes    int `json:"passes"`
	Turnovers int `json:"turnovers"`
	Shots     int `json:"shots"`
}

// Ranks holds the player's dense ranks against all players. Fields are
// nil when ranks could not be computed.
type Ranks struct {
	Points    *int `json:"points"`
	Makes     *int `json:"makes"`
	Misses    *int `json:"misses"`
	Passes    *int `json:"passes"`
	Turnovers *int `json:"turnovers"`
	Shots     *int `json:"shots"`
}

// PlayerSummary is the full summary payload for one player
type PlayerSummary struct {
	PlayerID int                      `json:"playerId"`
	Name     string                   `json:"name"`
	Totals   Totals                   `json:"totals"`
	Ranks    Ranks                    `json:"ranks"`
	Actions  map[string]*ActionBucket `json:"actions"`
}

// SummaryCache is the cache surface the summary service needs.
// Satisfied by cache.RedisCache; nil disables caching.
type SummaryCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SummaryService builds and caches player summaries
type SummaryService struct {
	db    *repository.Database
	cache SummaryCache
	ttl   time.Duration
}

// NewSummaryService creates a summary service. The cache is optional; a
// nil cache disables caching without changing behavior.
func NewSummaryService(db *repository.Database, rc SummaryCache, ttl time.Duration) *SummaryService {
	return &SummaryService{db: db, cache: rc, ttl: ttl}
}

// GetPlayerSummary returns the summary for a player identified by its
// natural source id, serving from cache when possible.
func (s *SummaryService) GetPlayerSummary(ctx context.Context, playerID int) (*PlayerSummary, error) {
	if cached := s.readCached(ctx, playerID); cached != nil {
		return cached, nil
	}

	summary, err := s.buildSummary(ctx, playerID)
	if err != nil {
		return nil, err
	}

	s.store(ctx, summaryCacheKey(playerID), summary)
	return summary, nil
}

// readCached returns the cached summary for a player, or nil on a miss.
// An entry that no longer decodes is invalidated immediately so it
// cannot outlive a failed rebuild.
func (s *SummaryService) readCached(ctx context.Context, playerID int) *PlayerSummary {
	if s.cache == nil {
		return nil
	}

	cached, err := s.cache.Get(ctx, summaryCacheKey(playerID))
	if err != nil {
		if cache.IsMiss(err) {
			metrics.RecordCacheMiss()
		} else {
			// Redis being down must not take the endpoint with it
			log.Warn().Err(err).Msg("Summary cache read failed, falling back to database")
		}
		return nil
	}

	var summary PlayerSummary
	if err := json.Unmarshal([]byte(cached), &summary); err != nil {
		log.Warn().Int("player_id", playerID).Msg("Discarding unreadable cached summary")
		if derr := s.InvalidatePlayerSummary(ctx, playerID); derr != nil {
			log.Warn().Err(derr).Int("player_id", playerID).Msg("Failed to drop unreadable cached summary")
		}
		return nil
	}

	metrics.RecordCacheHit()
	return &summary
}

// WarmPlayerSummaries rebuilds and caches the summary for every known
// player. Used by the scheduled cache warm and the boot-time warm.
func (s *SummaryService) WarmPlayerSummaries(ctx context.Context) (int, error) {
	players, err := s.db.Players.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list players for cache warm: %w", err)
	}

	warmed := 0
	for _, p := range players {
		summary, err := s.buildSummary(ctx, p.PlayerID)
		if err != nil {
			log.Warn().Err(err).Int("player_id", p.PlayerID).Msg("Cache warm skipped player")
			continue
		}
		s.store(ctx, summaryCacheKey(p.PlayerID), summary)
		warmed++
	}

	log.Info().Int("players", warmed).Msg("Summary cache warmed")
	return warmed, nil
}

// InvalidatePlayerSummary drops a player's cached summary
func (s *SummaryService) InvalidatePlayerSummary(ctx context.Context, playerID int) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, summaryCacheKey(playerID))
}

func summaryCacheKey(playerID int) string {
	return fmt.Sprintf("summary:player:%d", playerID)
}

func (s *SummaryService) store(ctx context.Context, key string, summary *PlayerSummary) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode summary for cache")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		log.Warn().Err(err).Msg("Failed to cache summary")
	}
}

// buildSummary assembles the summary from the event tables
func (s *SummaryService) buildSummary(ctx context.Context, playerID int) (*PlayerSummary, error) {
	start := time.Now()
	defer func() {
		metrics.SummaryBuildDuration.Observe(time.Since(start).Seconds())
	}()

	player, err := s.db.Players.GetByPlayerID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	shots, err := s.db.Summaries.ListShotsByPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	passes, err := s.db.Summaries.ListPassesByPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	turnovers, err := s.db.Summaries.ListTurnoversByPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}

	summary := aggregateSummary(playerID, player.Name, shots, passes, turnovers)

	ranks, err := s.db.Summaries.GetPlayerRanks(ctx, player.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// Player with no ranked totals keeps nil ranks
	} else {
		summary.Ranks = Ranks{
			Points:    &ranks.Points,
			Makes:     &ranks.Makes,
			Misses:    &ranks.Misses,
			Passes:    &ranks.Passes,
			Turnovers: &ranks.Turnovers,
			Shots:     &ranks.Shots,
		}
	}

	return summary, nil
}

// aggregateSummary buckets event rows by canonical action name and sums
// the per-bucket and top-level totals. Pure function, no I/O.
func aggregateSummary(playerID int, name string, shots []repository.ShotRow, passes []repository.PassRow, turnovers []repository.TurnoverRow) *PlayerSummary {
	actions := make(map[string]*ActionBucket, len(canonicalActionNames))
	for _, n := range canonicalActionNames {
		actions[n] = &ActionBucket{
			Shots:     []ShotPoint{},
			Passes:    []PassPoint{},
			Turnovers: []TurnoverPoint{},
		}
	}

	for _, r := range shots {
		bucket := actions[normalizeActionName(r.ActionName)]
		bucket.Shots = append(bucket.Shots, ShotPoint{
			X:          nullFloat(r.XFt),
			Y:          nullFloat(r.YFt),
			ShotResult: r.ShotResult,
			Points:     r.Points,
			OccurredAt: nullTime(r.OccurredAt),
			GameID:     r.GameID,
		})
		bucket.Totals.Shots++
		if r.ShotResult == "make" {
			bucket.Totals.Makes++
		} else {
			bucket.Totals.Misses++
		}
		bucket.Totals.Points += r.Points
	}

	for _, r := range passes {
		bucket := actions[normalizeActionName(r.ActionName)]
		bucket.Passes = append(bucket.Passes, PassPoint{
			X:              nullFloat(r.XFt),
			Y:              nullFloat(r.YFt),
			TargetPlayerID: nullInt(r.TargetPlayerID),
			OccurredAt:     nullTime(r.OccurredAt),
			GameID:         r.GameID,
		})
		bucket.Totals.Passes++
	}

	for _, r := range turnovers {
		bucket := actions[normalizeActionName(r.ActionName)]
		bucket.Turnovers = append(bucket.Turnovers, TurnoverPoint{
			X:            nullFloat(r.XFt),
			Y:            nullFloat(r.YFt),
			TurnoverType: r.TurnoverType,
			OccurredAt:   nullTime(r.OccurredAt),
			GameID:       r.GameID,
		})
		bucket.Totals.Turnovers++
	}

	var totals Totals
	for _, bucket := range actions {
		totals.Points += bucket.Totals.Points
		totals.Makes += bucket.Totals.Makes
		totals.Misses += bucket.Totals.Misses
		totals.Passes += bucket.Totals.Passes
		totals.Turnovers += bucket.Totals.Turnovers
		totals.Shots += bucket.Totals.Shots
	}

	return &PlayerSummary{
		PlayerID: playerID,
		Name:     name,
		Totals:   totals,
		Actions:  actions,
	}
}

// normalizeActionName folds action names outside the canonical set into
// the UNKNOWN bucket.
func normalizeActionName(name string) string {
	for _, n := range canonicalActionNames {
		if name == n {
			return n
		}
	}
	return "UNKNOWN"
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
