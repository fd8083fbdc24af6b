package models

import "time"

// Season represents a basketball season
type Season struct {
	ID        int       `db:"season_id"`
	YearStart int       `db:"year_start"`
	YearEnd   int       `db:"year_end"`
	CreatedAt time.Time `db:"created_at"`
}

// Game represents a basketball game dimension row
type Game struct {
	ID        int       `db:"id"`
	GameID    int       `db:"game_id"`
	Date      time.Time `db:"date"`
	SeasonID  int       `db:"season_id"`
	CreatedAt time.Time `db:"created_at"`
}
