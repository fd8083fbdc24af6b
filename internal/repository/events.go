package repository

import (
	"context"
	"fmt"

	"courtvision/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// EventRepository handles event fact and detail table operations
type EventRepository struct {
	db *Database
}

// UpsertOptions controls conflict behavior for a batch
type UpsertOptions struct {
	// UpdateExisting overwrites the whitelisted mutable fields of an
	// already-seen event. When false, conflicting rows are left untouched
	// and counted as skipped.
	UpdateExisting bool

	// Resume skips source ids already present without attempting an
	// update, regardless of UpdateExisting.
	Resume bool
}

// BatchResult counts the outcome of one batch transaction
type BatchResult struct {
	Inserted int
	Updated  int
	Skipped  int

	ShotRows     int
	PassRows     int
	TurnoverRows int
}

// Add accumulates another batch result into this one
func (b *BatchResult) Add(other BatchResult) {
	b.Inserted += other.Inserted
	b.Updated += other.Updated
	b.Skipped += other.Skipped
	b.ShotRows += other.ShotRows
	b.PassRows += other.PassRows
	b.TurnoverRows += other.TurnoverRows
}

const insertEventSQL = `
	INSERT INTO app.events
		(source_event_id, player_id, game_id, team_id, action_id, event_type, x_ft, y_ft, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (source_event_id) DO NOTHING
	RETURNING event_id
`

// Only these fields may change on re-ingestion of a known source id.
// Detail tables and the remaining event columns are immutable. The
// change predicate makes an identical replay a no-op, so it counts as
// skipped rather than updated.
const updateEventSQL = `
	UPDATE app.events
	SET x_ft = $1, y_ft = $2, occurred_at = $3, action_id = $4, team_id = $5
	WHERE source_event_id = $6
	  AND (x_ft IS DISTINCT FROM $1
	    OR y_ft IS DISTINCT FROM $2
	    OR occurred_at IS DISTINCT FROM $3
	    OR action_id IS DISTINCT FROM $4
	    OR team_id IS DISTINCT FROM $5)
`

// UpsertBatch inserts or updates a batch of event drafts inside a single
// transaction. Detail rows are written only for events freshly inserted in
// this batch; conflicts on existing detail rows are ignored so detail data
// stays immutable once the parent event exists. The transaction is
// all-or-nothing: any error rolls back the whole batch.
func (r *EventRepository) UpsertBatch(ctx context.Context, drafts []*models.EventDraft, opts UpsertOptions) (BatchResult, error) {
	var result BatchResult
	if len(drafts) == 0 {
		return result, nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pending := drafts
	if opts.Resume {
		pending, result.Skipped, err = r.filterExisting(ctx, tx, drafts)
		if err != nil {
			return BatchResult{}, err
		}
	}

	// Phase 1: conflict-aware insert keyed on source_event_id. Rows that
	// hit a conflict return no event_id and fall through to phase 2.
	insertBatch := &pgx.Batch{}
	for _, d := range pending {
		insertBatch.Queue(insertEventSQL,
			d.SourceEventID, d.PlayerID, d.GameID, d.TeamID, d.ActionID,
			d.EventType, d.XFt, d.YFt, d.OccurredAt,
		)
	}

	type insertedEvent struct {
		eventID int
		draft   *models.EventDraft
	}
	var inserted []insertedEvent
	var conflicted []*models.EventDraft

	br := tx.SendBatch(ctx, insertBatch)
	for _, d := range pending {
		var eventID int
		err := br.QueryRow().Scan(&eventID)
		switch {
		case err == nil:
			inserted = append(inserted, insertedEvent{eventID: eventID, draft: d})
		case err == pgx.ErrNoRows:
			conflicted = append(conflicted, d)
		default:
			br.Close()
			return BatchResult{}, fmt.Errorf("failed to insert event %d: %w", d.SourceEventID, err)
		}
	}
	if err := br.Close(); err != nil {
		return BatchResult{}, fmt.Errorf("failed to flush event inserts: %w", err)
	}
	result.Inserted = len(inserted)

	// Phase 2: update the whitelisted mutable fields of conflicting rows,
	// or skip them entirely under no-update mode. A conflicting row whose
	// whitelisted values are unchanged affects nothing and counts as
	// skipped, so replaying identical input reports zero updates.
	if opts.UpdateExisting && len(conflicted) > 0 {
		updateBatch := &pgx.Batch{}
		for _, d := range conflicted {
			updateBatch.Queue(updateEventSQL,
				d.XFt, d.YFt, d.OccurredAt, d.ActionID, d.TeamID, d.SourceEventID,
			)
		}

		br := tx.SendBatch(ctx, updateBatch)
		for _, d := range conflicted {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return BatchResult{}, fmt.Errorf("failed to update event %d: %w", d.SourceEventID, err)
			}
			if tag.RowsAffected() > 0 {
				result.Updated++
			} else {
				result.Skipped++
			}
		}
		if err := br.Close(); err != nil {
			return BatchResult{}, fmt.Errorf("failed to flush event updates: %w", err)
		}
	} else {
		result.Skipped += len(conflicted)
	}

	// Phase 3: detail rows for freshly inserted events only
	if len(inserted) > 0 {
		detailBatch := &pgx.Batch{}
		for _, ie := range inserted {
			d := ie.draft
			switch d.EventType {
			case models.EventTypeShot:
				detailBatch.Queue(`
					INSERT INTO app.shot_events (event_id, shot_result, points, shooting_foul_drawn)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (event_id) DO NOTHING
				`, ie.eventID, models.ShotResultFromPoints(d.Shot.Points), d.Shot.Points, d.Shot.ShootingFoulDrawn)
				result.ShotRows++
			case models.EventTypePass:
				detailBatch.Queue(`
					INSERT INTO app.pass_events (event_id, target_player_id, completed_pass, potential_assist, turnover)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (event_id) DO NOTHING
				`, ie.eventID, d.Pass.TargetPlayerID, d.Pass.CompletedPass, d.Pass.PotentialAssist, d.Pass.Turnover)
				result.PassRows++
			case models.EventTypeTurnover:
				detailBatch.Queue(`
					INSERT INTO app.turnover_events (event_id, turnover_type)
					VALUES ($1, $2)
					ON CONFLICT (event_id) DO NOTHING
				`, ie.eventID, d.Turnover.TurnoverType)
				result.TurnoverRows++
			}
		}

		br := tx.SendBatch(ctx, detailBatch)
		for range inserted {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return BatchResult{}, fmt.Errorf("failed to insert detail row: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return BatchResult{}, fmt.Errorf("failed to flush detail inserts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	log.Debug().
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("Event batch committed")

	return result, nil
}

// filterExisting drops drafts whose source ids are already present,
// returning the remaining drafts and the number skipped.
func (r *EventRepository) filterExisting(ctx context.Context, tx pgx.Tx, drafts []*models.EventDraft) ([]*models.EventDraft, int, error) {
	ids := make([]int, len(drafts))
	for i, d := range drafts {
		ids[i] = d.SourceEventID
	}

	rows, err := tx.Query(ctx, `SELECT source_event_id FROM app.events WHERE source_event_id = ANY($1)`, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query existing events: %w", err)
	}
	defer rows.Close()

	existing := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("failed to scan existing event id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating existing events: %w", err)
	}

	var pending []*models.EventDraft
	for _, d := range drafts {
		if _, ok := existing[d.SourceEventID]; !ok {
			pending = append(pending, d)
		}
	}

	return pending, len(existing), nil
}

// GetBySourceEventID retrieves an event by its natural source id
func (r *EventRepository) GetBySourceEventID(ctx context.Context, sourceEventID int) (*models.Event, error) {
	query := `
		SELECT event_id, source_event_id, player_id, game_id, team_id, action_id,
		       event_type, x_ft, y_ft, occurred_at, created_at
		FROM app.events
		WHERE source_event_id = $1
	`

	var event models.Event
	err := r.db.Pool.QueryRow(ctx, query, sourceEventID).Scan(
		&event.ID, &event.SourceEventID, &event.PlayerID, &event.GameID,
		&event.TeamID, &event.ActionID, &event.EventType,
		&event.XFt, &event.YFt, &event.OccurredAt, &event.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("event not found: source_event_id=%d", sourceEventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

// GetShotDetail retrieves the shot detail row for an event
func (r *EventRepository) GetShotDetail(ctx context.Context, eventID int) (*models.ShotEvent, error) {
	query := `
		SELECT event_id, shot_result, points, shooting_foul_drawn
		FROM app.shot_events
		WHERE event_id = $1
	`

	var shot models.ShotEvent
	err := r.db.Pool.QueryRow(ctx, query, eventID).Scan(
		&shot.EventID, &shot.ShotResult, &shot.Points, &shot.ShootingFoulDrawn,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("shot detail not found: event_id=%d", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shot detail: %w", err)
	}

	return &shot, nil
}

// Count returns the total number of events
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM app.events`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}

// TruncateFacts clears the event fact table and its detail tables.
// Dimension and action tables are never touched by the pipeline.
func (r *EventRepository) TruncateFacts(ctx context.Context) error {
	query := `
		TRUNCATE app.shot_events, app.pass_events, app.turnover_events, app.events
		RESTART IDENTITY
	`

	if _, err := r.db.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate fact tables: %w", err)
	}

	log.Warn().Msg("Fact tables truncated")
	return nil
}
