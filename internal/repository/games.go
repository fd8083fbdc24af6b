package repository

import (
	"context"
	"fmt"
	"time"

	"courtvision/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// GameRepository handles game database operations
type GameRepository struct {
	db *Database
}

// GetOrCreate returns the game with the given natural id, creating it if
// absent. Date filtering happens before this call; a game that reaches
// the repository is always upserted.
func (r *GameRepository) GetOrCreate(ctx context.Context, gameID int, date time.Time, seasonID int) (*models.Game, bool, error) {
	query := `
		INSERT INTO app.games (game_id, date, season_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING id, game_id, date, season_id, created_at
	`

	var game models.Game
	err := r.db.Pool.QueryRow(ctx, query, gameID, date, seasonID).Scan(
		&game.ID, &game.GameID, &game.Date, &game.SeasonID, &game.CreatedAt,
	)
	if err == nil {
		log.Debug().Int("game_id", game.GameID).Time("date", game.Date).Msg("Game created")
		return &game, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create game %d: %w", gameID, err)
	}

	game2, err := r.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, false, err
	}
	return game2, false, nil
}

// GetByGameID retrieves a game by its natural source id
func (r *GameRepository) GetByGameID(ctx context.Context, gameID int) (*models.Game, error) {
	query := `
		SELECT id, game_id, date, season_id, created_at
		FROM app.games
		WHERE game_id = $1
	`

	var game models.Game
	err := r.db.Pool.QueryRow(ctx, query, gameID).Scan(
		&game.ID, &game.GameID, &game.Date, &game.SeasonID, &game.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("game not found: game_id=%d", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &game, nil
}

// List retrieves all games ordered by date
func (r *GameRepository) List(ctx context.Context) ([]*models.Game, error) {
	query := `
		SELECT id, game_id, date, season_id, created_at
		FROM app.games
		ORDER BY date
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var game models.Game
		err := rows.Scan(&game.ID, &game.GameID, &game.Date, &game.SeasonID, &game.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// Count returns the total number of games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM app.games`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}
