package repository

import (
	"context"
	"database/sql"
	"fmt"
	"quest-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type CursorRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCursorRepository(sqlDB *sql.DB, logger zerolog.Logger) *CursorRepository {
	return &CursorRepository{db: sqlDB, logger: logger}
}

// Get returns the player's feed cursor, or an empty cursor if the player
// has never been polled.
func (r *CursorRepository) Get(ctx context.Context, playerID int64) (*domain.FeedCursor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT player_id, last_seen, updated_at FROM feed_cursor WHERE player_id = ?`, playerID)

	var cursor domain.FeedCursor
	err := row.Scan(&cursor.PlayerID, &cursor.LastSeen, &cursor.UpdatedAt)
	if err == sql.ErrNoRows {
		return &domain.FeedCursor{PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed cursor: %w", err)
	}
	return &cursor, nil
}
