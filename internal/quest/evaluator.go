package quest

import (
	"context"
	"fmt"
	"quest-tracker/internal/constants"
	"quest-tracker/internal/domain"
	"quest-tracker/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

// Evaluator computes team progress for a day from stored drops. Matching
// is recomputed from message plus pattern on every call, so re-evaluating
// the same day with the same drops always yields the same score.
type Evaluator struct {
	teams    *repository.TeamRepository
	drops    *repository.DropRepository
	schedule *repository.ScheduleRepository
	logger   zerolog.Logger
}

func NewEvaluator(teams *repository.TeamRepository, drops *repository.DropRepository, schedule *repository.ScheduleRepository, logger zerolog.Logger) *Evaluator {
	return &Evaluator{teams: teams, drops: drops, schedule: schedule, logger: logger}
}

// DayWindow returns the UTC half-open interval [start, end) covered by a
// canonical YYYY-MM-DD day key.
func DayWindow(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(constants.DayKeyFormat, date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day key %q: %w", date, err)
	}
	return start, start.Add(24 * time.Hour), nil
}

// EvaluateDay scores every team against the day's tasks. Returns
// ErrNotFound when no day record exists.
func (e *Evaluator) EvaluateDay(ctx context.Context, date string) (*domain.DayProgress, error) {
	day, err := e.schedule.GetDay(ctx, date)
	if err != nil {
		return nil, err
	}

	teams, err := e.teams.List(ctx)
	if err != nil {
		return nil, err
	}

	progress := &domain.DayProgress{
		Date:        date,
		AllRequired: day.AllRequired,
		Scores:      make(map[string]domain.TeamScore, len(teams)),
	}

	for _, team := range teams {
		score, err := e.EvaluateTeam(ctx, day, team.ID)
		if err != nil {
			return nil, err
		}
		progress.Scores[team.Name] = *score
	}

	return progress, nil
}

// EvaluateTeam scores one team for one day. A task whose pattern fails to
// compile reports an error line and counts as unsatisfied; the remaining
// tasks still evaluate.
func (e *Evaluator) EvaluateTeam(ctx context.Context, day *domain.Day, teamID int64) (*domain.TeamScore, error) {
	start, end, err := DayWindow(day.Date)
	if err != nil {
		return nil, err
	}

	drops, err := e.drops.ListForTeamWindow(ctx, teamID, start, end)
	if err != nil {
		return nil, err
	}

	score := &domain.TeamScore{}
	completions := make([]bool, 0, len(day.Tasks))
	for _, task := range day.Tasks {
		matched, patternErr := matchDrops(task.Pattern, drops)
		if patternErr != nil {
			e.logger.Warn().Err(patternErr).Int64("task_id", task.ID).Msg("task pattern failed to compile")
			score.Lines = append(score.Lines, fmt.Sprintf("%s - pattern error: %v", task.Description, patternErr))
			completions = append(completions, false)
			continue
		}

		completed := len(matched) >= task.NumberRequired
		check := "✗"
		if completed {
			check = "✓"
		}
		score.Lines = append(score.Lines, fmt.Sprintf("%s - %d/%d - %s", task.Description, len(matched), task.NumberRequired, check))
		for _, drop := range matched {
			score.Lines = append(score.Lines, fmt.Sprintf("- %s%s", drop.RSN, trimLeadingPronoun(drop.Message)))
		}
		completions = append(completions, completed)
	}

	score.AllCompleted = combine(completions, day.AllRequired)
	return score, nil
}

// CountTaskDrops returns how many of the team's drops within the day
// satisfy a single task's pattern. Used by the live-notification path.
func (e *Evaluator) CountTaskDrops(ctx context.Context, teamID int64, date string, task domain.Task) (int, error) {
	start, end, err := DayWindow(date)
	if err != nil {
		return 0, err
	}

	drops, err := e.drops.ListForTeamWindow(ctx, teamID, start, end)
	if err != nil {
		return 0, err
	}

	matched, err := matchDrops(task.Pattern, drops)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func matchDrops(pattern string, drops []domain.DropWithPlayer) ([]domain.DropWithPlayer, error) {
	var matched []domain.DropWithPlayer
	for _, drop := range drops {
		ok, err := Matches(pattern, drop.Message)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, drop)
		}
	}
	return matched, nil
}

func combine(completions []bool, allRequired bool) bool {
	if len(completions) == 0 {
		return false
	}
	if allRequired {
		for _, c := range completions {
			if !c {
				return false
			}
		}
		return true
	}
	for _, c := range completions {
		if c {
			return true
		}
	}
	return false
}

// trimLeadingPronoun turns the feed phrasing "I found a ..." into
// " found a ..." so it reads naturally after the player's name.
func trimLeadingPronoun(message string) string {
	if len(message) > 1 {
		return message[1:]
	}
	return message
}
