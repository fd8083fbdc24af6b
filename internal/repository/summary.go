package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SummaryRepository reads joined event/detail rows used by the player
// summary endpoint.
type SummaryRepository struct {
	db *Database
}

// ShotRow is one shot event with its court location and action context
type ShotRow struct {
	XFt        sql.NullFloat64
	YFt        sql.NullFloat64
	ShotResult string
	Points     int
	ActionName string
	OccurredAt sql.NullTime
	GameID     int
}

// PassRow is one pass event with its court location and action context
type PassRow struct {
	XFt            sql.NullFloat64
	YFt            sql.NullFloat64
	TargetPlayerID sql.NullInt32
	ActionName     string
	OccurredAt     sql.NullTime
	GameID         int
}

// TurnoverRow is one turnover event with its court location and action context
type TurnoverRow struct {
	XFt          sql.NullFloat64
	YFt          sql.NullFloat64
	TurnoverType string
	ActionName   string
	OccurredAt   sql.NullTime
	GameID       int
}

// PlayerRanks holds dense ranks of a player's totals against all players
type PlayerRanks struct {
	Points    int
	Makes     int
	Misses    int
	Shots     int
	Passes    int
	Turnovers int
}

// ListShotsByPlayer returns every shot event for a player (by database id)
func (r *SummaryRepository) ListShotsByPlayer(ctx context.Context, playerDBID int) ([]ShotRow, error) {
	query := `
		SELECT e.x_ft, e.y_ft, s.shot_result, s.points, a.name, e.occurred_at, e.game_id
		FROM app.shot_events s
		JOIN app.events e ON e.event_id = s.event_id
		JOIN app.actions a ON a.action_id = e.action_id
		WHERE e.player_id = $1
		ORDER BY e.event_id
	`

	rows, err := r.db.Pool.Query(ctx, query, playerDBID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", err)
	}
	defer rows.Close()

	var shots []ShotRow
	for rows.Next() {
		var s ShotRow
		if err := rows.Scan(&s.XFt, &s.YFt, &s.ShotResult, &s.Points, &s.ActionName, &s.OccurredAt, &s.GameID); err != nil {
			return nil, fmt.Errorf("failed to scan shot row: %w", err)
		}
		shots = append(shots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shot rows: %w", err)
	}

	return shots, nil
}

// ListPassesByPlayer returns every pass event for a player (by database id)
func (r *SummaryRepository) ListPassesByPlayer(ctx context.Context, playerDBID int) ([]PassRow, error) {
	query := `
		SELECT e.x_ft, e.y_ft, p.target_player_id, a.name, e.occurred_at, e.game_id
		FROM app.pass_events p
		JOIN app.events e ON e.event_id = p.event_id
		JOIN app.actions a ON a.action_id = e.action_id
		WHERE e.player_id = $1
		ORDER BY e.event_id
	`

	rows, err := r.db.Pool.Query(ctx, query, playerDBID)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	defer rows.Close()

	var passes []PassRow
	for rows.Next() {
		var p PassRow
		if err := rows.Scan(&p.XFt, &p.YFt, &p.TargetPlayerID, &p.ActionName, &p.OccurredAt, &p.GameID); err != nil {
			return nil, fmt.Errorf("failed to scan pass row: %w", err)
		}
		passes = append(passes, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pass rows: %w", err)
	}

	return passes, nil
}

// ListTurnoversByPlayer returns every turnover event for a player (by database id)
func (r *SummaryRepository) ListTurnoversByPlayer(ctx context.Context, playerDBID int) ([]TurnoverRow, error) {
	query := `
		SELECT e.x_ft, e.y_ft, t.turnover_type, a.name, e.occurred_at, e.game_id
		FROM app.turnover_events t
		JOIN app.events e ON e.event_id = t.event_id
		JOIN app.actions a ON a.action_id = e.action_id
		WHERE e.player_id = $1
		ORDER BY e.event_id
	`

	rows, err := r.db.Pool.Query(ctx, query, playerDBID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turnovers: %w", err)
	}
	defer rows.Close()

	var turnovers []TurnoverRow
	for rows.Next() {
		var t TurnoverRow
		if err := rows.Scan(&t.XFt, &t.YFt, &t.TurnoverType, &t.ActionName, &t.OccurredAt, &t.GameID); err != nil {
			return nil, fmt.Errorf("failed to scan turnover row: %w", err)
		}
		turnovers = append(turnovers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turnover rows: %w", err)
	}

	return turnovers, nil
}

// GetPlayerRanks computes dense ranks of a player's totals against every
// player in one round trip. Rank 1 is the league leader for each metric.
func (r *SummaryRepository) GetPlayerRanks(ctx context.Context, playerDBID int) (*PlayerRanks, error) {
	query := `
		WITH shot_totals AS (
			SELECT e.player_id,
			       SUM(s.points) AS points,
			       COUNT(*) AS shots,
			       COUNT(*) FILTER (WHERE s.shot_result = 'make') AS makes,
			       COUNT(*) FILTER (WHERE s.shot_result = 'miss') AS misses
			FROM app.shot_events s
			JOIN app.events e ON e.event_id = s.event_id
			GROUP BY e.player_id
		),
		pass_totals AS (
			SELECT e.player_id, COUNT(*) AS passes
			FROM app.pass_events p
			JOIN app.events e ON e.event_id = p.event_id
			GROUP BY e.player_id
		),
		turnover_totals AS (
			SELECT e.player_id, COUNT(*) AS turnovers
			FROM app.turnover_events t
			JOIN app.events e ON e.event_id = t.event_id
			GROUP BY e.player_id
		),
		totals AS (
			SELECT p.id,
			       COALESCE(st.points, 0)    AS points,
			       COALESCE(st.shots, 0)     AS shots,
			       COALESCE(st.makes, 0)     AS makes,
			       COALESCE(st.misses, 0)    AS misses,
			       COALESCE(pt.passes, 0)    AS passes,
			       COALESCE(tt.turnovers, 0) AS turnovers
			FROM app.players p
			LEFT JOIN shot_totals st ON st.player_id = p.id
			LEFT JOIN pass_totals pt ON pt.player_id = p.id
			LEFT JOIN turnover_totals tt ON tt.player_id = p.id
		),
		ranked AS (
			SELECT id,
			       DENSE_RANK() OVER (ORDER BY points DESC)    AS rank_points,
			       DENSE_RANK() OVER (ORDER BY makes DESC)     AS rank_makes,
			       DENSE_RANK() OVER (ORDER BY misses DESC)    AS rank_misses,
			       DENSE_RANK() OVER (ORDER BY shots DESC)     AS rank_shots,
			       DENSE_RANK() OVER (ORDER BY passes DESC)    AS rank_passes,
			       DENSE_RANK() OVER (ORDER BY turnovers DESC) AS rank_turnovers
			FROM totals
		)
		SELECT rank_points, rank_makes, rank_misses, rank_shots, rank_passes, rank_turnovers
		FROM ranked
		WHERE id = $1
	`

	var ranks PlayerRanks
	err := r.db.Pool.QueryRow(ctx, query, playerDBID).Scan(
		&ranks.Points, &ranks.Makes, &ranks.Misses,
		&ranks.Shots, &ranks.Passes, &ranks.Turnovers,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("player ranks for id=%d: %w", playerDBID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compute player ranks: %w", err)
	}

	return &ranks, nil
}
