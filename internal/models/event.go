package models

import (
	"database/sql"
	"time"
)

// Event types stored in the events.event_type discriminant column
const (
	EventTypeShot     = "shot"
	EventTypePass     = "pass"
	EventTypeTurnover = "turnover"
)

// Shot results derived from points scored
const (
	ShotResultMake = "make"
	ShotResultMiss = "miss"
)

// TurnoverTypeGeneral is the only turnover classification the raw feed
// carries; the source does not disambiguate turnover causes.
const TurnoverTypeGeneral = "general"

// Event represents one observed possession event (the fact row).
// source_event_id is the natural key from the raw feed and is globally
// unique; it is the basis for idempotent re-ingestion.
type Event struct {
	ID            int             `db:"event_id"`
	SourceEventID int             `db:"source_event_id"`
	PlayerID      int             `db:"player_id"`
	GameID        int             `db:"game_id"`
	TeamID        sql.NullInt32   `db:"team_id"`
	ActionID      int             `db:"action_id"`
	EventType     string          `db:"event_type"`
	XFt           sql.NullFloat64 `db:"x_ft"`
	YFt           sql.NullFloat64 `db:"y_ft"`
	OccurredAt    sql.NullTime    `db:"occurred_at"`
	CreatedAt     time.Time       `db:"created_at"`
}

// ShotEvent holds shot-specific detail, 1:1 with a shot Event
type ShotEvent struct {
	EventID           int    `db:"event_id"`
	ShotResult        string `db:"shot_result"`
	Points            int    `db:"points"`
	ShootingFoulDrawn bool   `db:"shooting_foul_drawn"`
}

// PassEvent holds pass-specific detail, 1:1 with a pass Event.
// TargetPlayerID is always null; the raw feed does not identify the
// receiving player.
type PassEvent struct {
	EventID         int           `db:"event_id"`
	TargetPlayerID  sql.NullInt32 `db:"target_player_id"`
	CompletedPass   bool          `db:"completed_pass"`
	PotentialAssist bool          `db:"potential_assist"`
	Turnover        bool          `db:"turnover"`
}

// TurnoverEvent holds turnover-specific detail, 1:1 with a turnover Event
type TurnoverEvent struct {
	EventID      int    `db:"event_id"`
	TurnoverType string `db:"turnover_type"`
}

// ShotDetail is the parsed shot payload carried by an EventDraft
type ShotDetail struct {
	Points            int
	ShootingFoulDrawn bool
}

// PassDetail is the parsed pass payload carried by an EventDraft
type PassDetail struct {
	TargetPlayerID  *int
	CompletedPass   bool
	PotentialAssist bool
	Turnover        bool
}

// TurnoverDetail is the parsed turnover payload carried by an EventDraft
type TurnoverDetail struct {
	TurnoverType string
}

// EventDraft is a fully resolved event ready for upsert: raw labels have
// been replaced by database foreign keys and exactly one detail variant
// matching EventType is populated.
type EventDraft struct {
	SourceEventID int
	EventType     string
	PlayerID      int
	GameID        int
	TeamID        *int
	ActionID      int
	XFt           *float64
	YFt           *float64
	OccurredAt    *time.Time

	Shot     *ShotDetail
	Pass     *PassDetail
	Turnover *TurnoverDetail
}

// ShotResultFromPoints derives the shot outcome from points scored
func ShotResultFromPoints(points int) string {
	if points > 0 {
		return ShotResultMake
	}
	return ShotResultMiss
}
