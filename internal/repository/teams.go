package repository

import (
	"context"
	"fmt"

	"courtvision/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

// GetOrCreate returns the team with the given natural id, creating it if
// absent. Existing rows are selected without modification; dimension
// identity is never overwritten by the pipeline.
func (r *TeamRepository) GetOrCreate(ctx context.Context, teamID int, name string) (*models.Team, bool, error) {
	query := `
		INSERT INTO app.teams (team_id, name)
		VALUES ($1, $2)
		ON CONFLICT (team_id) DO NOTHING
		RETURNING id, team_id, name, created_at, updated_at
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, teamID, name).Scan(
		&team.ID, &team.TeamID, &team.Name, &team.CreatedAt, &team.UpdatedAt,
	)
	if err == nil {
		log.Debug().Int("team_id", team.TeamID).Str("name", team.Name).Msg("Team created")
		return &team, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create team %d: %w", teamID, err)
	}

	team2, err := r.GetByTeamID(ctx, teamID)
	if err != nil {
		return nil, false, err
	}
	return team2, false, nil
}

// GetByTeamID retrieves a team by its natural source id
func (r *TeamRepository) GetByTeamID(ctx context.Context, teamID int) (*models.Team, error) {
	query := `
		SELECT id, team_id, name, created_at, updated_at
		FROM app.teams
		WHERE team_id = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, teamID).Scan(
		&team.ID, &team.TeamID, &team.Name, &team.CreatedAt, &team.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("team not found: team_id=%d", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// List retrieves all teams
func (r *TeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `
		SELECT id, team_id, name, created_at, updated_at
		FROM app.teams
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var team models.Team
		err := rows.Scan(&team.ID, &team.TeamID, &team.Name, &team.CreatedAt, &team.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM app.teams`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}

	return count, nil
}
