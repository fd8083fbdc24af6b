package models

import "time"

// Team represents a basketball team dimension row
type Team struct {
	ID        int       `db:"id"`
	TeamID    int       `db:"team_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
