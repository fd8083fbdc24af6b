package repository

import (
	"context"
	"fmt"

	"courtvision/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ActionRepository handles action taxonomy database operations
type ActionRepository struct {
	db *Database
}

// GetOrCreate returns the action with the given code, creating it if
// absent. Existing rows are never modified; the display name only applies
// on first insert.
func (r *ActionRepository) GetOrCreate(ctx context.Context, code, name string) (*models.Action, bool, error) {
	query := `
		INSERT INTO app.actions (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
		RETURNING action_id, code, name
	`

	var action models.Action
	err := r.db.Pool.QueryRow(ctx, query, code, name).Scan(&action.ID, &action.Code, &action.Name)
	if err == nil {
		log.Info().Str("code", action.Code).Str("name", action.Name).Msg("Action created")
		return &action, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create action %s: %w", code, err)
	}

	// Conflict: the row already exists, select it
	selectQuery := `SELECT action_id, code, name FROM app.actions WHERE code = $1`
	if err := r.db.Pool.QueryRow(ctx, selectQuery, code).Scan(&action.ID, &action.Code, &action.Name); err != nil {
		return nil, false, fmt.Errorf("failed to get action %s: %w", code, err)
	}

	return &action, false, nil
}

// List retrieves all actions
func (r *ActionRepository) List(ctx context.Context) ([]*models.Action, error) {
	query := `SELECT action_id, code, name FROM app.actions ORDER BY code`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.Action
	for rows.Next() {
		var action models.Action
		if err := rows.Scan(&action.ID, &action.Code, &action.Name); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, &action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}

	return actions, nil
}
