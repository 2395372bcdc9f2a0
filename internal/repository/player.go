package repository

import (
	"context"
	"database/sql"
	"fmt"
	"quest-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

func (r *PlayerRepository) Create(ctx context.Context, rsn string, teamID int64) (*domain.Player, error) {
	var taken int64
	err := r.db.QueryRowContext(ctx, `SELECT player_id FROM player WHERE rsn = ?`, rsn).Scan(&taken)
	if err == nil {
		return nil, fmt.Errorf("rsn %s: %w", rsn, domain.ErrConflict)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check rsn: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO player (rsn, team_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		rsn, teamID, now, now)
	if err != nil {
		r.logger.Error().Err(err).Str("rsn", rsn).Msg("failed to insert player")
		return nil, fmt.Errorf("failed to insert player: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read player id: %w", err)
	}

	return &domain.Player{ID: id, RSN: rsn, TeamID: teamID, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *PlayerRepository) GetByRSN(ctx context.Context, rsn string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT player_id, rsn, team_id, created_at, updated_at FROM player WHERE rsn = ?`, rsn)

	var player domain.Player
	err := row.Scan(&player.ID, &player.RSN, &player.TeamID, &player.CreatedAt, &player.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player %s: %w", rsn, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &player, nil
}

func (r *PlayerRepository) ChangeRSN(ctx context.Context, oldRSN, newRSN string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT player_id FROM player WHERE rsn = ?`, oldRSN).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("player %s: %w", oldRSN, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}

	var taken int64
	err = tx.QueryRowContext(ctx, `SELECT player_id FROM player WHERE rsn = ?`, newRSN).Scan(&taken)
	if err == nil {
		return fmt.Errorf("rsn %s: %w", newRSN, domain.ErrConflict)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check rsn: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE player SET rsn = ?, updated_at = ? WHERE player_id = ?`,
		newRSN, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to change rsn: %w", err)
	}

	return tx.Commit()
}

func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT player_id, rsn, team_id, created_at, updated_at FROM player ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var player domain.Player
		if err := rows.Scan(&player.ID, &player.RSN, &player.TeamID, &player.CreatedAt, &player.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int64) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT player_id, rsn, team_id, created_at, updated_at FROM player WHERE team_id = ? ORDER BY rsn`,
		teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var player domain.Player
		if err := rows.Scan(&player.ID, &player.RSN, &player.TeamID, &player.CreatedAt, &player.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}
