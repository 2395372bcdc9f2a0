package repository

import (
	"context"
	"database/sql"
	"fmt"
	"quest-tracker/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type DropRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewDropRepository(sqlDB *sql.DB, logger zerolog.Logger) *DropRepository {
	return &DropRepository{db: sqlDB, logger: logger}
}

// RecordPoll persists one player's polling result: the new drops and the
// advanced cursor commit together or not at all, so the cursor can never
// move past entries whose drops were lost.
func (r *DropRepository) RecordPoll(ctx context.Context, playerID int64, drops []domain.Drop, newMarker string) ([]domain.Drop, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	inserted := make([]domain.Drop, 0, len(drops))
	for _, drop := range drops {
		id := drop.ID
		if id == "" {
			id, err = gonanoid.New()
			if err != nil {
				return nil, fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO drop_event (drop_id, player_id, message, timestamp, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, playerID, drop.Message, drop.Timestamp, now); err != nil {
			return nil, fmt.Errorf("failed to insert drop: %w", err)
		}

		drop.ID = id
		drop.PlayerID = playerID
		drop.CreatedAt = now
		inserted = append(inserted, drop)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO feed_cursor (player_id, last_seen, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (player_id) DO UPDATE SET last_seen = excluded.last_seen, updated_at = excluded.updated_at`,
		playerID, newMarker, now); err != nil {
		return nil, fmt.Errorf("failed to advance feed cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit poll result: %w", err)
	}
	return inserted, nil
}

// Insert stores a single manually registered drop.
func (r *DropRepository) Insert(ctx context.Context, drop domain.Drop) (*domain.Drop, error) {
	id := drop.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO drop_event (drop_id, player_id, message, timestamp, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, drop.PlayerID, drop.Message, drop.Timestamp, now); err != nil {
		r.logger.Error().Err(err).Int64("player_id", drop.PlayerID).Msg("failed to insert drop")
		return nil, fmt.Errorf("failed to insert drop: %w", err)
	}

	drop.ID = id
	drop.CreatedAt = now
	return &drop, nil
}

func (r *DropRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drop_event WHERE drop_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete drop: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("drop %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListForTeamWindow returns all drops by members of a team whose
// timestamps fall within [start, end), joined with player data. Pattern
// matching happens in the evaluator: message plus pattern is the source
// of truth, never a cached classification.
func (r *DropRepository) ListForTeamWindow(ctx context.Context, teamID int64, start, end time.Time) ([]domain.DropWithPlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.drop_id, d.player_id, d.message, d.timestamp, d.created_at, p.rsn, p.team_id
		 FROM drop_event d
		 JOIN player p ON p.player_id = d.player_id
		 WHERE p.team_id = ? AND d.timestamp >= ? AND d.timestamp < ?
		 ORDER BY d.timestamp`,
		teamID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list team drops: %w", err)
	}
	defer rows.Close()

	var drops []domain.DropWithPlayer
	for rows.Next() {
		var d domain.DropWithPlayer
		if err := rows.Scan(&d.ID, &d.PlayerID, &d.Message, &d.Timestamp, &d.CreatedAt, &d.RSN, &d.TeamID); err != nil {
			return nil, fmt.Errorf("failed to scan drop: %w", err)
		}
		drops = append(drops, d)
	}
	return drops, rows.Err()
}
