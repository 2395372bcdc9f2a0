package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"quest-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type TeamRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTeamRepository(sqlDB *sql.DB, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{db: sqlDB, logger: logger}
}

func (r *TeamRepository) Create(ctx context.Context, name string, lives int) (*domain.Team, error) {
	existing, err := r.GetByName(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("team name %s: %w", name, domain.ErrConflict)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO team (name, lives, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, lives, now, now)
	if err != nil {
		r.logger.Error().Err(err).Str("team", name).Msg("failed to insert team")
		return nil, fmt.Errorf("failed to insert team: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read team id: %w", err)
	}

	return &domain.Team{ID: id, Name: name, Lives: lives, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT team_id, name, lives, created_at, updated_at FROM team WHERE name = ?`, name)

	var team domain.Team
	err := row.Scan(&team.ID, &team.Name, &team.Lives, &team.CreatedAt, &team.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("team %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT team_id, name, lives, created_at, updated_at FROM team WHERE team_id = ?`, id)

	var team domain.Team
	err := row.Scan(&team.ID, &team.Name, &team.Lives, &team.CreatedAt, &team.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("team %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (r *TeamRepository) Rename(ctx context.Context, oldName, newName string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT team_id FROM team WHERE name = ?`, oldName).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("team %s: %w", oldName, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get team: %w", err)
	}

	var taken int64
	err = tx.QueryRowContext(ctx, `SELECT team_id FROM team WHERE name = ?`, newName).Scan(&taken)
	if err == nil {
		return fmt.Errorf("team name %s: %w", newName, domain.ErrConflict)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check team name: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE team SET name = ?, updated_at = ? WHERE team_id = ?`,
		newName, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to rename team: %w", err)
	}

	return tx.Commit()
}

func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT team_id, name, lives, created_at, updated_at FROM team ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Lives, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) UpdateLives(ctx context.Context, teamID int64, lives int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE team SET lives = ?, updated_at = ? WHERE team_id = ?`,
		lives, time.Now().UTC(), teamID)
	if err != nil {
		r.logger.Error().Err(err).Int64("team_id", teamID).Msg("failed to update lives")
		return fmt.Errorf("failed to update lives: %w", err)
	}
	return nil
}
