package service

import (
	"context"
	"fmt"
	"quest-tracker/internal/config"
	"quest-tracker/internal/constants"
	"quest-tracker/internal/domain"
	"quest-tracker/internal/quest"
	"quest-tracker/internal/repository"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// AdminService implements the competition's management operations. Every
// operation is all-or-nothing: on failure it returns a human-readable
// error and performs no mutation.
type AdminService struct {
	cfg       *config.Config
	teams     *repository.TeamRepository
	players   *repository.PlayerRepository
	drops     *repository.DropRepository
	schedule  *repository.ScheduleRepository
	evaluator *quest.Evaluator
	logger    zerolog.Logger
}

func NewAdminService(
	cfg *config.Config,
	teams *repository.TeamRepository,
	players *repository.PlayerRepository,
	drops *repository.DropRepository,
	schedule *repository.ScheduleRepository,
	evaluator *quest.Evaluator,
	logger zerolog.Logger,
) *AdminService {
	return &AdminService{
		cfg:       cfg,
		teams:     teams,
		players:   players,
		drops:     drops,
		schedule:  schedule,
		evaluator: evaluator,
		logger:    logger,
	}
}

// TeamView is the list-teams projection: members and remaining lives.
type TeamView struct {
	Name    string   `json:"name"`
	Lives   int      `json:"lives"`
	Members []string `json:"members"`
}

// AdminDayView exposes a day's full configuration, patterns included.
type AdminDayView struct {
	Date        string        `json:"date"`
	AllRequired bool          `json:"all_required"`
	Password    string        `json:"password,omitempty"`
	Tasks       []domain.Task `json:"tasks"`
}

func (s *AdminService) AddTeam(ctx context.Context, name string) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	team, err := s.teams.Create(ctx, name, s.cfg.DefaultLives)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("team", name).Msg("team added")
	return team, nil
}

func (s *AdminService) RenameTeam(ctx context.Context, oldName, newName string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.teams.Rename(ctx, oldName, newName); err != nil {
		return fmt.Errorf("could not rename %s: %w", oldName, err)
	}
	s.logger.Info().Str("old", oldName).Str("new", newName).Msg("team renamed")
	return nil
}

func (s *AdminService) AddPlayer(ctx context.Context, rsn, teamName string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	team, err := s.teams.GetByName(ctx, teamName)
	if err != nil {
		return nil, fmt.Errorf("could not create %s: %w", rsn, err)
	}

	player, err := s.players.Create(ctx, rsn, team.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("rsn", rsn).Str("team", teamName).Msg("player added")
	return player, nil
}

func (s *AdminService) ChangeRSN(ctx context.Context, oldRSN, newRSN string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.players.ChangeRSN(ctx, oldRSN, newRSN); err != nil {
		return fmt.Errorf("could not update rsn for %s: %w", oldRSN, err)
	}
	s.logger.Info().Str("old", oldRSN).Str("new", newRSN).Msg("rsn changed")
	return nil
}

func (s *AdminService) ListTeams(ctx context.Context) ([]TeamView, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]TeamView, 0, len(teams))
	for _, team := range teams {
		players, err := s.players.ListByTeam(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		members := make([]string, 0, len(players))
		for _, player := range players {
			members = append(members, player.RSN)
		}
		views = append(views, TeamView{Name: team.Name, Lives: team.Lives, Members: members})
	}
	return views, nil
}

func (s *AdminService) AddTask(ctx context.Context, dayInput, description, pattern string, numberRequired int) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	date, err := parseDayInput(dayInput)
	if err != nil {
		return nil, err
	}
	if numberRequired <= 0 {
		return nil, fmt.Errorf("number required must be positive")
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("invalid task pattern %q: %v", pattern, err)
	}

	task, err := s.schedule.AddTask(ctx, date, description, pattern, numberRequired)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("day", date).Int64("task_id", task.ID).Msg("task added")
	return task, nil
}

func (s *AdminService) EditTask(ctx context.Context, id int64, description, pattern string, numberRequired int) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	existing, err := s.schedule.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("could not edit task %d: %w", id, err)
	}

	// Blank fields keep their current value, mirroring optional edits.
	if description == "" {
		description = existing.Description
	}
	if pattern == "" {
		pattern = existing.Pattern
	} else if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid task pattern %q: %v", pattern, err)
	}
	if numberRequired <= 0 {
		numberRequired = existing.NumberRequired
	}

	if err := s.schedule.EditTask(ctx, id, description, pattern, numberRequired); err != nil {
		return fmt.Errorf("could not edit task %d: %w", id, err)
	}
	s.logger.Info().Int64("task_id", id).Msg("task edited")
	return nil
}

func (s *AdminService) RemoveTask(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.schedule.RemoveTask(ctx, id); err != nil {
		return fmt.Errorf("could not remove task %d: %w", id, err)
	}
	s.logger.Info().Int64("task_id", id).Msg("task removed")
	return nil
}

func (s *AdminService) SetAllRequired(ctx context.Context, dayInput string, allRequired bool) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	date, err := parseDayInput(dayInput)
	if err != nil {
		return err
	}
	return s.schedule.SetAllRequired(ctx, date, allRequired)
}

func (s *AdminService) SetPassword(ctx context.Context, dayInput, password string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	date, err := parseDayInput(dayInput)
	if err != nil {
		return err
	}
	return s.schedule.SetPassword(ctx, date, password)
}

func (s *AdminService) DayView(ctx context.Context, dayInput string) (*AdminDayView, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	date, err := resolveDayInput(dayInput)
	if err != nil {
		return nil, err
	}

	day, err := s.schedule.GetDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return &AdminDayView{
		Date:        day.Date,
		AllRequired: day.AllRequired,
		Password:    day.Password,
		Tasks:       day.Tasks,
	}, nil
}

// TaskDescription is the player-facing announcement for a day.
func (s *AdminService) TaskDescription(ctx context.Context, dayInput string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	date, err := resolveDayInput(dayInput)
	if err != nil {
		return "", err
	}

	day, err := s.schedule.GetDay(ctx, date)
	if err != nil {
		return "", err
	}
	return quest.TaskAnnouncement(day), nil
}

// RegisterDropResult reports what a manual drop insertion produced: the
// notifications for tasks it satisfied, or an informational message when
// it matched nothing. Matching nothing is a defined outcome, not an
// error.
type RegisterDropResult struct {
	Drop          *domain.Drop              `json:"drop"`
	Notifications []domain.DropNotification `json:"notifications,omitempty"`
	Info          string                    `json:"info,omitempty"`
}

func (s *AdminService) RegisterDrop(ctx context.Context, rsn, message, timestampInput string) (*RegisterDropResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	player, err := s.players.GetByRSN(ctx, rsn)
	if err != nil {
		return nil, fmt.Errorf("could not add drop: %w", err)
	}

	timestamp, err := time.ParseInLocation(constants.FeedTimeFormat, timestampInput, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q, expected %s", timestampInput, constants.FeedTimeFormat)
	}

	drop, err := s.drops.Insert(ctx, domain.Drop{
		PlayerID:  player.ID,
		Message:   message,
		Timestamp: timestamp,
	})
	if err != nil {
		return nil, err
	}

	result := &RegisterDropResult{Drop: drop}

	date := timestamp.Format(constants.DayKeyFormat)
	day, err := s.schedule.GetDay(ctx, date)
	if err != nil {
		result.Info = "drop was added successfully, but it did not match a day with tasks"
		return result, nil
	}

	team, err := s.teams.GetByID(ctx, player.TeamID)
	if err != nil {
		return nil, err
	}

	for _, task := range day.Tasks {
		matched, err := quest.Matches(task.Pattern, message)
		if err != nil {
			s.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("task pattern failed to compile")
			continue
		}
		if !matched {
			continue
		}
		count, err := s.evaluator.CountTaskDrops(ctx, team.ID, date, task)
		if err != nil {
			return nil, err
		}
		result.Notifications = append(result.Notifications, quest.BuildDropNotification(rsn, team.Name, message, task, count))
	}

	if len(result.Notifications) == 0 {
		result.Info = "drop was added successfully, but it did not match any task"
	}
	return result, nil
}

func (s *AdminService) DeleteDrop(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.drops.Delete(ctx, id); err != nil {
		return fmt.Errorf("could not delete drop: %w", err)
	}
	s.logger.Info().Str("drop_id", id).Msg("drop deleted")
	return nil
}

// CheckProgress evaluates a day for every team. An empty day input means
// today; future days are rejected.
func (s *AdminService) CheckProgress(ctx context.Context, dayInput string) (*domain.DayProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	date, err := resolveDayInput(dayInput)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format(constants.DayKeyFormat)
	if date > today {
		return nil, fmt.Errorf("you cannot check progress on future days")
	}

	return s.evaluator.EvaluateDay(ctx, date)
}

func parseDayInput(dayInput string) (string, error) {
	parsed, err := time.ParseInLocation(constants.DayInputFormat, dayInput, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid day %q, expected %s", dayInput, constants.DayInputFormat)
	}
	return parsed.Format(constants.DayKeyFormat), nil
}

func resolveDayInput(dayInput string) (string, error) {
	if dayInput == "" {
		return time.Now().UTC().Format(constants.DayKeyFormat), nil
	}
	return parseDayInput(dayInput)
}
