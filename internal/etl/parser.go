package etl

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"courtvision/backend/internal/models"

	"github.com/rs/zerolog/log"
)

// maxCourtCoordinateFt is the sanity bound for court coordinates. Values
// beyond it are retained but flagged; feet is the only supported unit.
const maxCourtCoordinateFt = 100.0

// ParseError is a record-level validation failure. The record is skipped
// and counted; it never escalates past its batch unless strict mode is
// active.
type ParseError struct {
	SourceEventID int
	Field         string
	Reason        string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("event %d: %s (field %s)", e.SourceEventID, e.Reason, e.Field)
}

// ErrGameNotLoaded marks an event whose game is absent from the
// dimension cache, typically because a date filter excluded it. The
// event is skipped without counting as a parse error.
var ErrGameNotLoaded = errors.New("game not loaded in dimension cache")

// Parser turns raw possession records into normalized event drafts. It
// performs no I/O: foreign keys are resolved through the in-memory
// dimension caches and the action registry.
type Parser struct {
	dims    *DimensionCache
	actions *Registry
	stats   *RunStats
}

// NewParser creates a parser over loaded caches
func NewParser(dims *DimensionCache, actions *Registry, stats *RunStats) *Parser {
	return &Parser{dims: dims, actions: actions, stats: stats}
}

// Parse validates one raw event and maps it to an EventDraft. The event
// type is inferred from which coordinate field group is present; the
// groups are mutually exclusive per record.
func (p *Parser) Parse(raw *models.RawEvent, owner *models.RawPlayer) (*models.EventDraft, error) {
	if raw.ID == nil {
		return nil, &ParseError{Field: "id", Reason: "missing source event id"}
	}
	sourceID := *raw.ID

	if raw.GameID == nil {
		return nil, &ParseError{SourceEventID: sourceID, Field: "game_id", Reason: "missing game id"}
	}

	player, ok := p.dims.Players[owner.PlayerID]
	if !ok {
		return nil, &ParseError{SourceEventID: sourceID, Field: "player_id", Reason: "player not loaded in dimension cache"}
	}

	game, ok := p.dims.Games[*raw.GameID]
	if !ok {
		return nil, ErrGameNotLoaded
	}

	eventType, err := discriminate(raw, sourceID)
	if err != nil {
		return nil, err
	}

	actionCode := p.actions.Resolve(raw.ActionType)
	action, ok := p.actions.Get(actionCode)
	if !ok {
		return nil, &ParseError{SourceEventID: sourceID, Field: "action_type", Reason: "action registry not seeded"}
	}

	draft := &models.EventDraft{
		SourceEventID: sourceID,
		EventType:     eventType,
		PlayerID:      player.ID,
		GameID:        game.ID,
		ActionID:      action.ID,
	}

	if team, ok := p.dims.Teams[owner.TeamID]; ok {
		teamID := team.ID
		draft.TeamID = &teamID
	}

	switch eventType {
	case models.EventTypeShot:
		draft.XFt = p.parseCoordinate(raw.ShotLocX, "shot_loc_x", sourceID)
		draft.YFt = p.parseCoordinate(raw.ShotLocY, "shot_loc_y", sourceID)

		points := 0
		if raw.Points != nil {
			points = *raw.Points
		}
		if points != 0 && points != 2 && points != 3 {
			log.Warn().Int("source_event_id", sourceID).Int("points", points).Msg("Unexpected points value for shot")
			p.stats.Warnings++
		}

		foulDrawn := false
		if raw.ShootingFoulDrawn != nil {
			foulDrawn = *raw.ShootingFoulDrawn
		}

		draft.Shot = &models.ShotDetail{Points: points, ShootingFoulDrawn: foulDrawn}

	case models.EventTypePass:
		draft.XFt = p.parseCoordinate(raw.BallStartLocX, "ball_start_loc_x", sourceID)
		draft.YFt = p.parseCoordinate(raw.BallStartLocY, "ball_start_loc_y", sourceID)

		completed := true
		if raw.CompletedPass != nil {
			completed = *raw.CompletedPass
		}
		potentialAssist := false
		if raw.PotentialAssist != nil {
			potentialAssist = *raw.PotentialAssist
		}
		turnover := false
		if raw.Turnover != nil {
			turnover = *raw.Turnover
		}

		// Target player is never present in the raw feed
		draft.Pass = &models.PassDetail{
			TargetPlayerID:  nil,
			CompletedPass:   completed,
			PotentialAssist: potentialAssist,
			Turnover:        turnover,
		}

	case models.EventTypeTurnover:
		draft.XFt = p.parseCoordinate(raw.TovLocX, "tov_loc_x", sourceID)
		draft.YFt = p.parseCoordinate(raw.TovLocY, "tov_loc_y", sourceID)

		draft.Turnover = &models.TurnoverDetail{TurnoverType: models.TurnoverTypeGeneral}
	}

	return draft, nil
}

// discriminate infers the event type from which coordinate field group
// is present. Absence of all groups, or presence of more than one, is a
// hard parse error.
func discriminate(raw *models.RawEvent, sourceID int) (string, error) {
	hasShot := raw.ShotLocX != nil || raw.ShotLocY != nil
	hasPass := raw.BallStartLocX != nil || raw.BallStartLocY != nil
	hasTurnover := raw.TovLocX != nil || raw.TovLocY != nil

	groups := 0
	eventType := ""
	if hasShot {
		groups++
		eventType = models.EventTypeShot
	}
	if hasPass {
		groups++
		eventType = models.EventTypePass
	}
	if hasTurnover {
		groups++
		eventType = models.EventTypeTurnover
	}

	switch groups {
	case 0:
		return "", &ParseError{SourceEventID: sourceID, Field: "coordinates", Reason: "no coordinate field group present, cannot determine event type"}
	case 1:
		return eventType, nil
	default:
		return "", &ParseError{SourceEventID: sourceID, Field: "coordinates", Reason: "multiple coordinate field groups present"}
	}
}

// parseCoordinate converts a raw coordinate value to feet. A null or
// absent value yields nil silently; an unparseable value yields nil with
// a data-quality warning; a value beyond the court sanity bound is
// retained but flagged.
func (p *Parser) parseCoordinate(raw json.RawMessage, field string, sourceID int) *float64 {
	if raw == nil || string(raw) == "null" {
		return nil
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		// Some feeds quote numeric values
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			p.warnCoordinate(field, string(raw), sourceID)
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			p.warnCoordinate(field, s, sourceID)
			return nil
		}
		value = parsed
	}

	if math.Abs(value) > maxCourtCoordinateFt {
		log.Warn().
			Int("source_event_id", sourceID).
			Str("field", field).
			Float64("value", value).
			Msg("Coordinate value seems unreasonable for basketball court")
		p.stats.Warnings++
	}

	return &value
}

func (p *Parser) warnCoordinate(field, value string, sourceID int) {
	log.Warn().
		Int("source_event_id", sourceID).
		Str("field", field).
		Str("value", value).
		Msg("Invalid coordinate value")
	p.stats.Warnings++
}
