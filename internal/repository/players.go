package repository

import (
	"context"
	"fmt"

	"courtvision/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PlayerRepository handles player database operations
type PlayerRepository struct {
	db *Database
}

// GetOrCreate returns the player with the given natural id, creating it if
// absent. teamDBID is the database id of the player's team.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, playerID int, name string, teamDBID int) (*models.Player, bool, error) {
	query := `
		INSERT INTO app.players (player_id, name, team_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO NOTHING
		RETURNING id, player_id, name, team_id, created_at, updated_at
	`

	var player models.Player
	err := r.db.Pool.QueryRow(ctx, query, playerID, name, teamDBID).Scan(
		&player.ID, &player.PlayerID, &player.Name, &player.TeamID,
		&player.CreatedAt, &player.UpdatedAt,
	)
	if err == nil {
		log.Debug().Int("player_id", player.PlayerID).Str("name", player.Name).Msg("Player created")
		return &player, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create player %d: %w", playerID, err)
	}

	player2, err := r.GetByPlayerID(ctx, playerID)
	if err != nil {
		return nil, false, err
	}
	return player2, false, nil
}

// GetByPlayerID retrieves a player by its natural source id
func (r *PlayerRepository) GetByPlayerID(ctx context.Context, playerID int) (*models.Player, error) {
	query := `
		SELECT id, player_id, name, team_id, created_at, updated_at
		FROM app.players
		WHERE player_id = $1
	`

	var player models.Player
	err := r.db.Pool.QueryRow(ctx, query, playerID).Scan(
		&player.ID, &player.PlayerID, &player.Name, &player.TeamID,
		&player.CreatedAt, &player.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// List retrieves all players
func (r *PlayerRepository) List(ctx context.Context) ([]*models.Player, error) {
	query := `
		SELECT id, player_id, name, team_id, created_at, updated_at
		FROM app.players
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var player models.Player
		err := rows.Scan(
			&player.ID, &player.PlayerID, &player.Name, &player.TeamID,
			&player.CreatedAt, &player.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &player)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// Count returns the total number of players
func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM app.players`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}

	return count, nil
}
