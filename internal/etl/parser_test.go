package etl

import (
	"encoding/json"
	"errors"
	"testing"

	"courtvision/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int          { return &v }
func boolPtr(v bool) *bool       { return &v }
func rawNum(s string) json.RawMessage { return json.RawMessage(s) }

func newTestDims() *DimensionCache {
	return &DimensionCache{
		Season: &models.Season{ID: 1, YearStart: 2023, YearEnd: 2024},
		Teams: map[int]*models.Team{
			100: {ID: 1, TeamID: 100, Name: "Hawks"},
		},
		Players: map[int]*models.Player{
			7: {ID: 2, PlayerID: 7, Name: "Test Player", TeamID: 1},
		},
		Games: map[int]*models.Game{
			500: {ID: 3, GameID: 500},
		},
	}
}

func newTestParser(stats *RunStats) *Parser {
	return NewParser(newTestDims(), newTestRegistry(stats), stats)
}

func testOwner() *models.RawPlayer {
	return &models.RawPlayer{PlayerID: 7, Name: "Test Player", TeamID: 100}
}

func TestParseShot(t *testing.T) {
	stats := NewRunStats()
	parser := newTestParser(stats)

	raw := &models.RawEvent{
		ID:         intPtr(9001),
		GameID:     intPtr(500),
		ActionType: "pick_and_roll",
		ShotLocX:   rawNum("5.0"),
		ShotLocY:   rawNum("3.0"),
		Points:     intPtr(2),
	}

	draft, err := parser.Parse(raw, testOwner())
	require.NoError(t, err)

	assert.Equal(t, 9001, draft.SourceEventID)
	assert.Equal(t, models.EventTypeShot, draft.EventType)
	assert.Equal(t, 2, draft.PlayerID, "Should resolve player database id")
	assert.Equal(t, 3, draft.GameID, "Should resolve game database id")
	require.NotNil(t, draft.TeamID)
	assert.Equal(t, 1, *draft.TeamID)

	require.NotNil(t, draft.XFt)
	assert.Equal(t, 5.0, *draft.XFt)
	require.NotNil(t, draft.YFt)
	assert.Equal(t, 3.0, *draft.YFt)

	require.NotNil(t, draft.Shot)
	assert.Equal(t, 2, draft.Shot.Points)
	assert.False(t, draft.Shot.ShootingFoulDrawn)
	assert.Nil(t, draft.Pass)
	assert.Nil(t, draft.Turnover)
	assert.Equal(t, 0, stats.Warnings)
}

func TestParseShotResultFromPoints(t *testing.T) {
	assert.Equal(t, models.ShotResultMake, models.ShotResultFromPoints(2))
	assert.Equal(t, models.ShotResultMake, models.ShotResultFromPoints(3))
	assert.Equal(t, models.ShotResultMiss, models.ShotResultFromPoints(0))
}

func TestParseShotUnexpectedPoints(t *testing.T) {
	stats := NewRunStats()
	parser := newTestParser(stats)

	raw := &models.RawEvent{
		ID:       intPtr(9002),
		GameID:   intPtr(500),
		ShotLocX: rawNum("1.0"),
		ShotLocY: rawNum("1.0"),
		Points:   intPtr(5),
	}

	draft, err := parser.Parse(raw, testOwner())
	require.NoError(t, err)
	assert.Equal(t, 5, draft.Shot.Points, "Out-of-set points are retained")
	assert.Equal(t, 1, stats.Warnings, "Out-of-set points should warn")
}

func TestParsePassDefaults(t *testing.T) {
	stats := NewRunStats()
	parser := newTestParser(stats)

	raw := &models.RawEvent{
		ID:            intPtr(9003),
		GameID:        intPtr(500),
		ActionType:    "isolation",
		BallStartLocX: rawNum("10.5"),
		BallStartLocY: rawNum("-4.25"),
	}

	draft, err := parser.Parse(raw, testOwner())
	require.NoError(t, err)

	assert.Equal(t, models.EventTypePass, draft.EventType)
	require.NotNil(t, draft.Pass)
	assert.Nil(t, draft.Pass.TargetPlayerID, "Target player is never populated from the feed")
	assert.True(t, draft.Pass.CompletedPass, "Pass defaults to completed")
	assert.False(t, draft.Pass.PotentialAssist)
	assert.False(t, draft.Pass.Turnover)
}

func TestParsePassExplicitFlags(t *testing.T) {
	parser := newTestParser(NewRunStats())

	raw := &models.RawEvent{
		ID:              intPtr(9004),
		GameID:          intPtr(500),
		BallStartLocX:   rawNum("0"),
		BallStartLocY:   rawNum("0"),
		CompletedPass:   boolPtr(false),
		PotentialAssist: boolPtr(true),
		Turnover:        boolPtr(true),
	}

	draft, err := parser.Parse(raw, testOwner())
	require.NoError(t, err)
	assert.False(t, draft.Pass.CompletedPass)
	assert.True(t, draft.Pass.PotentialAssist)
	assert.True(t, draft.Pass.Turnover)
}

func TestParseTurnover(t *testing.T) {
	parser := newTestParser(NewRunStats())

	raw := &models.RawEvent{
		ID:      intPtr(9005),
		GameID:  intPtr(500),
		TovLocX: rawNum("2.5"),
		TovLocY: rawNum("7.75"),
	}

	draft, err := parser.Parse(raw, testOwner())
	require.NoError(t, err)

	assert.Equal(t, models.EventTypeTurnover, draft.EventType)
	require.NotNil(t, draft.Turnover)
	assert.Equal(t, models.TurnoverTypeGeneral, draft.Turnover.TurnoverType)
}

func TestParseMissingID(t *testing.T) {
	parser := newTestParser(NewRunStats())

	raw := &models.RawEvent{
		GameID:   intPtr(500),
		ShotLocX: rawNum("1"),
	}

	_, err := parser.Parse(raw, testOwner())
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "id", perr.Field)
}

func TestParseMissingGameID(t *testing.T) {
	parser := newTestParser(NewRunStats())

	raw := &models.RawEvent{
		ID:       intPtr(9006),
		ShotLocX: rawNum("1"),
	}

	_, err := parser.Parse(raw, testOwner())
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "game_id", perr.Field)
	assert.Equal(t, 9006, perr.SourceEventID)
}

func TestParseGameNotLoaded(t *testing.T) {
	parser := newTestParser(NewRunStats())

	raw := &models.RawEvent{
		ID:       intPtr(9007),
		GameID:   intPtr(999),
		ShotLocX: rawNum("1"),
	}

	_, err := parser.Parse(raw, testOwner())
	assert.ErrorIs(t, err, ErrGameNotLoaded)
}

func TestParseUnknownPlayer(t *testing.T) {
	parser := newTestParser(NewRunStats())

	owner := &models.RawPlayer{PlayerID: 404, TeamID: 100}
	raw := &models.RawEvent{
		ID:       intPtr(9008),
		GameID:   intPtr(500),
		ShotLocX: rawNum("1"),
	}

	_, err := parser.Parse(raw, owner)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "player_id", perr.Field)
}

func TestDiscriminate(t *testing.T) {
	t.Run("no coordinate group", func(t *testing.T) {
		raw := &models.RawEvent{}
		_, err := discriminate(raw, 1)
		var perr *ParseError
		require.True(t, errors.As(err, &perr))
	})

	t.Run("multiple coordinate groups", func(t *testing.T) {
		raw := &models.RawEvent{
			ShotLocX: rawNum("1"),
			TovLocX:  rawNum("2"),
		}
		_, err := discriminate(raw, 1)
		var perr *ParseError
		require.True(t, errors.As(err, &perr))
	})

	t.Run("single field of a group is enough", func(t *testing.T) {
		raw := &models.RawEvent{ShotLocY: rawNum("null")}
		eventType, err := discriminate(raw, 1)
		require.NoError(t, err)
		assert.Equal(t, models.EventTypeShot, eventType)
	})
}

func TestParseCoordinate(t *testing.T) {
	t.Run("absent yields nil silently", func(t *testing.T) {
		stats := NewRunStats()
		parser := newTestParser(stats)
		assert.Nil(t, parser.parseCoordinate(nil, "shot_loc_x", 1))
		assert.Equal(t, 0, stats.Warnings)
	})

	t.Run("null yields nil silently", func(t *testing.T) {
		stats := NewRunStats()
		parser := newTestParser(stats)
		assert.Nil(t, parser.parseCoordinate(rawNum("null"), "shot_loc_x", 1))
		assert.Equal(t, 0, stats.Warnings)
	})

	t.Run("quoted numeric string parses", func(t *testing.T) {
		stats := NewRunStats()
		parser := newTestParser(stats)
		v := parser.parseCoordinate(rawNum(`"12.5"`), "shot_loc_x", 1)
		require.NotNil(t, v)
		assert.Equal(t, 12.5, *v)
		assert.Equal(t, 0, stats.Warnings)
	})

	t.Run("unparseable yields nil with warning", func(t *testing.T) {
		stats := NewRunStats()
		parser := newTestParser(stats)
		assert.Nil(t, parser.parseCoordinate(rawNum(`"court"`), "shot_loc_x", 1))
		assert.Equal(t, 1, stats.Warnings)
	})

	t.Run("out-of-range value retained with warning", func(t *testing.T) {
		stats := NewRunStats()
		parser := newTestParser(stats)
		v := parser.parseCoordinate(rawNum("250.0"), "shot_loc_x", 1)
		require.NotNil(t, v)
		assert.Equal(t, 250.0, *v)
		assert.Equal(t, 1, stats.Warnings)
	})

	t.Run("negative coordinates are valid", func(t *testing.T) {
		stats := NewRunStats()
		parser := newTestParser(stats)
		v := parser.parseCoordinate(rawNum("-23.75"), "shot_loc_x", 1)
		require.NotNil(t, v)
		assert.Equal(t, -23.75, *v)
		assert.Equal(t, 0, stats.Warnings)
	})
}
