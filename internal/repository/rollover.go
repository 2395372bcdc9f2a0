package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// RolloverRepository owns the singleton last-rollover marker. Claim is
// the only mutation path and runs read-compare-update in one transaction,
// so concurrent cycles observing the same day boundary agree on a single
// winner.
type RolloverRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRolloverRepository(sqlDB *sql.DB, logger zerolog.Logger) *RolloverRepository {
	return &RolloverRepository{db: sqlDB, logger: logger}
}

// Claim attempts to advance the marker to currentDay (canonical
// YYYY-MM-DD, which compares chronologically as a string). It returns the
// previously recorded day and whether this call won the transition.
// crossed is false when the marker already covers currentDay.
func (r *RolloverRepository) Claim(ctx context.Context, currentDay string) (previous string, crossed bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var recorded string
	err = tx.QueryRowContext(ctx, `SELECT day FROM last_rollover WHERE id = 0`).Scan(&recorded)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO last_rollover (id, day) VALUES (0, ?)`, currentDay); err != nil {
			return "", false, fmt.Errorf("failed to record first day: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", false, fmt.Errorf("failed to commit rollover marker: %w", err)
		}
		r.logger.Info().Str("day", currentDay).Msg("first rollover day recorded")
		return "", true, nil
	case err != nil:
		return "", false, fmt.Errorf("failed to read rollover marker: %w", err)
	}

	if recorded >= currentDay {
		return recorded, false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE last_rollover SET day = ? WHERE id = 0 AND day = ?`, currentDay, recorded); err != nil {
		return "", false, fmt.Errorf("failed to advance rollover marker: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("failed to commit rollover marker: %w", err)
	}

	return recorded, true, nil
}

// Last returns the recorded day, or "" when no rollover has happened yet.
func (r *RolloverRepository) Last(ctx context.Context) (string, error) {
	var recorded string
	err := r.db.QueryRowContext(ctx, `SELECT day FROM last_rollover WHERE id = 0`).Scan(&recorded)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read rollover marker: %w", err)
	}
	return recorded, nil
}
