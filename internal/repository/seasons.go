package repository

import (
	"context"
	"fmt"

	"courtvision/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// SeasonRepository handles season database operations
type SeasonRepository struct {
	db *Database
}

// GetOrCreate returns the season for the given year range, creating it if absent
func (r *SeasonRepository) GetOrCreate(ctx context.Context, yearStart, yearEnd int) (*models.Season, error) {
	query := `
		INSERT INTO app.seasons (year_start, year_end)
		VALUES ($1, $2)
		ON CONFLICT (year_start, year_end) DO NOTHING
		RETURNING season_id, year_start, year_end, created_at
	`

	var season models.Season
	err := r.db.Pool.QueryRow(ctx, query, yearStart, yearEnd).Scan(
		&season.ID, &season.YearStart, &season.YearEnd, &season.CreatedAt,
	)
	if err == nil {
		log.Info().
			Int("year_start", season.YearStart).
			Int("year_end", season.YearEnd).
			Msg("Season created")
		return &season, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to create season %d-%d: %w", yearStart, yearEnd, err)
	}

	selectQuery := `
		SELECT season_id, year_start, year_end, created_at
		FROM app.seasons
		WHERE year_start = $1 AND year_end = $2
	`
	err = r.db.Pool.QueryRow(ctx, selectQuery, yearStart, yearEnd).Scan(
		&season.ID, &season.YearStart, &season.YearEnd, &season.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get season %d-%d: %w", yearStart, yearEnd, err)
	}

	return &season, nil
}
