package repository

import (
	"context"
	"database/sql"
	"fmt"
	"quest-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// ScheduleRepository stores the competition calendar: days and the tasks
// that belong to them.
type ScheduleRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewScheduleRepository(sqlDB *sql.DB, logger zerolog.Logger) *ScheduleRepository {
	return &ScheduleRepository{db: sqlDB, logger: logger}
}

// GetDay returns the day and its tasks, or ErrNotFound when no day record
// exists for that date.
func (r *ScheduleRepository) GetDay(ctx context.Context, date string) (*domain.Day, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT date, all_required, password FROM day WHERE date = ?`, date)

	var day domain.Day
	err := row.Scan(&day.Date, &day.AllRequired, &day.Password)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}

	tasks, err := r.tasksForDay(ctx, date)
	if err != nil {
		return nil, err
	}
	day.Tasks = tasks
	return &day, nil
}

func (r *ScheduleRepository) tasksForDay(ctx context.Context, date string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT task_id, day_date, description, pattern, number_required FROM task WHERE day_date = ? ORDER BY task_id`,
		date)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.DayDate, &task.Description, &task.Pattern, &task.NumberRequired); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// AddTask creates the day record if absent, then attaches the task to it.
func (r *ScheduleRepository) AddTask(ctx context.Context, date, description, pattern string, numberRequired int) (*domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO day (date) VALUES (?) ON CONFLICT (date) DO NOTHING`, date); err != nil {
		return nil, fmt.Errorf("failed to ensure day: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO task (day_date, description, pattern, number_required) VALUES (?, ?, ?, ?)`,
		date, description, pattern, numberRequired)
	if err != nil {
		r.logger.Error().Err(err).Str("day", date).Msg("failed to insert task")
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read task id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task: %w", err)
	}

	return &domain.Task{
		ID:             id,
		DayDate:        date,
		Description:    description,
		Pattern:        pattern,
		NumberRequired: numberRequired,
	}, nil
}

func (r *ScheduleRepository) EditTask(ctx context.Context, id int64, description, pattern string, numberRequired int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE task SET description = ?, pattern = ?, number_required = ? WHERE task_id = ?`,
		description, pattern, numberRequired, id)
	if err != nil {
		return fmt.Errorf("failed to edit task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read edit result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *ScheduleRepository) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT task_id, day_date, description, pattern, number_required FROM task WHERE task_id = ?`, id)

	var task domain.Task
	err := row.Scan(&task.ID, &task.DayDate, &task.Description, &task.Pattern, &task.NumberRequired)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *ScheduleRepository) RemoveTask(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task WHERE task_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read remove result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *ScheduleRepository) SetAllRequired(ctx context.Context, date string, allRequired bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE day SET all_required = ? WHERE date = ?`, allRequired, date)
	if err != nil {
		return fmt.Errorf("failed to set all_required: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}
	return nil
}

func (r *ScheduleRepository) SetPassword(ctx context.Context, date, password string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE day SET password = ? WHERE date = ?`, password, date)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("day %s: %w", date, domain.ErrNotFound)
	}
	return nil
}
