package quest

import (
	"context"
	"errors"
	"fmt"
	"quest-tracker/internal/domain"
	"quest-tracker/internal/repository"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Rollover closes out the previous calendar day exactly once per day
// transition: it scores the day, decrements lives for incomplete teams
// and surfaces per-team outcomes.
type Rollover struct {
	marker    *repository.RolloverRepository
	schedule  *repository.ScheduleRepository
	teams     *repository.TeamRepository
	evaluator *Evaluator
	logger    zerolog.Logger
}

func NewRollover(marker *repository.RolloverRepository, schedule *repository.ScheduleRepository, teams *repository.TeamRepository, evaluator *Evaluator, logger zerolog.Logger) *Rollover {
	return &Rollover{marker: marker, schedule: schedule, teams: teams, evaluator: evaluator, logger: logger}
}

// CheckAndRun performs the day transition if currentDay is newer than the
// recorded marker. It returns nil when no boundary was crossed. The
// marker claim is transactional, so a second trigger for the same day is
// a no-op even under overlapping cycles.
func (r *Rollover) CheckAndRun(ctx context.Context, currentDay string) (*domain.NewDaySummary, error) {
	previous, crossed, err := r.marker.Claim(ctx, currentDay)
	if err != nil {
		return nil, fmt.Errorf("failed to claim day transition: %w", err)
	}
	if !crossed {
		return nil, nil
	}

	summary := &domain.NewDaySummary{Day: currentDay}

	if previous != "" {
		outcomes, err := r.closeDay(ctx, previous)
		if err != nil {
			// The marker already advanced; scoring is skipped for this
			// transition but ingestion must continue.
			r.logger.Error().Err(err).Str("day", previous).Msg("failed to close previous day")
		} else {
			summary.Outcomes = outcomes
		}
	}

	summary.TaskDescription = r.taskDescription(ctx, currentDay)

	r.logger.Info().
		Str("day", currentDay).
		Str("previous", previous).
		Int("outcomes", len(summary.Outcomes)).
		Msg("day rollover completed")
	return summary, nil
}

func (r *Rollover) closeDay(ctx context.Context, day string) ([]domain.RolloverOutcome, error) {
	progress, err := r.evaluator.EvaluateDay(ctx, day)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(progress.Scores))
	for name := range progress.Scores {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := make([]domain.RolloverOutcome, 0, len(names))
	for _, name := range names {
		score := progress.Scores[name]
		team, err := r.teams.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}

		lives := team.Lives
		if !score.AllCompleted && lives > 0 {
			lives--
			if err := r.teams.UpdateLives(ctx, team.ID, lives); err != nil {
				return nil, err
			}
		}

		outcomes = append(outcomes, domain.RolloverOutcome{
			TeamName:   name,
			Lives:      lives,
			Completed:  score.AllCompleted,
			Eliminated: !score.AllCompleted && lives == 0,
		})
	}

	return outcomes, nil
}

// taskDescription builds the player-facing announcement for the new day:
// task descriptions joined by and/or per the day's completion policy,
// plus the password once the day is current.
func (r *Rollover) taskDescription(ctx context.Context, day string) string {
	dayRecord, err := r.schedule.GetDay(ctx, day)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Error().Err(err).Str("day", day).Msg("failed to load day for announcement")
		}
		return ""
	}

	return TaskAnnouncement(dayRecord)
}

// TaskAnnouncement renders the player-facing description of a day: task
// descriptions joined by and/or per the completion policy, plus the
// password once the day is current.
func TaskAnnouncement(day *domain.Day) string {
	joiner := " or "
	if day.AllRequired {
		joiner = " and "
	}
	descriptions := make([]string, 0, len(day.Tasks))
	for _, task := range day.Tasks {
		descriptions = append(descriptions, task.Description)
	}

	description := strings.Join(descriptions, joiner)
	if day.Password != "" {
		description += "\n\nToday's password: " + day.Password
	}
	return description
}
