package models

import "encoding/json"

// Raw input records as they appear in the raw_data JSON files.
// Coordinate fields are kept as json.RawMessage so the parser can
// distinguish an absent key (field group not present) from a value that
// fails to parse as a number (nulled with a warning).

// RawTeam is one record of teams.json
type RawTeam struct {
	TeamID int    `json:"team_id"`
	Name   string `json:"name"`
}

// RawGame is one record of games.json
type RawGame struct {
	ID   int    `json:"id"`
	Date string `json:"date"`
}

// RawPlayer is one record of players.json. Besides the player dimension
// fields it embeds the player's possession events, grouped by type.
type RawPlayer struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	TeamID   int    `json:"team_id"`

	Shots     []RawEvent `json:"shots"`
	Passes    []RawEvent `json:"passes"`
	Turnovers []RawEvent `json:"turnovers"`
}

// RawEvent is one possession record from any of the three event arrays.
// The field groups are mutually exclusive per record; which coordinate
// group is present determines the event type.
type RawEvent struct {
	ID         *int   `json:"id"`
	GameID     *int   `json:"game_id"`
	ActionType string `json:"action_type"`

	// Shot fields
	ShotLocX          json.RawMessage `json:"shot_loc_x"`
	ShotLocY          json.RawMessage `json:"shot_loc_y"`
	Points            *int            `json:"points"`
	ShootingFoulDrawn *bool           `json:"shooting_foul_drawn"`

	// Pass fields
	BallStartLocX   json.RawMessage `json:"ball_start_loc_x"`
	BallStartLocY   json.RawMessage `json:"ball_start_loc_y"`
	CompletedPass   *bool           `json:"completed_pass"`
	PotentialAssist *bool           `json:"potential_assist"`
	Turnover        *bool           `json:"turnover"`

	// Turnover fields
	TovLocX json.RawMessage `json:"tov_loc_x"`
	TovLocY json.RawMessage `json:"tov_loc_y"`
}
