package models

import "time"

// Player represents a basketball player dimension row
type Player struct {
	ID        int       `db:"id"`
	PlayerID  int       `db:"player_id"`
	Name      string    `db:"name"`
	TeamID    int       `db:"team_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
