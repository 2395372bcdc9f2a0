package quest

import (
	"context"
	"fmt"
	"quest-tracker/internal/api"
	"quest-tracker/internal/config"
	"quest-tracker/internal/constants"
	"quest-tracker/internal/domain"
	"quest-tracker/internal/repository"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Poller drives one full ingestion cycle: day rollover check, then
// incremental polling of every player's activity feed, persisting new
// drops and emitting notifications for drops matching today's tasks.
type Poller struct {
	cfg        *config.Config
	feed       *api.FeedClient
	classifier *api.Classifier
	players    *repository.PlayerRepository
	cursors    *repository.CursorRepository
	drops      *repository.DropRepository
	schedule   *repository.ScheduleRepository
	teams      *repository.TeamRepository
	evaluator  *Evaluator
	rollover   *Rollover
	notifier   Notifier
	logger     zerolog.Logger
}

func NewPoller(
	cfg *config.Config,
	feed *api.FeedClient,
	classifier *api.Classifier,
	players *repository.PlayerRepository,
	cursors *repository.CursorRepository,
	drops *repository.DropRepository,
	schedule *repository.ScheduleRepository,
	teams *repository.TeamRepository,
	evaluator *Evaluator,
	rollover *Rollover,
	notifier Notifier,
	logger zerolog.Logger,
) *Poller {
	return &Poller{
		cfg:        cfg,
		feed:       feed,
		classifier: classifier,
		players:    players,
		cursors:    cursors,
		drops:      drops,
		schedule:   schedule,
		teams:      teams,
		evaluator:  evaluator,
		rollover:   rollover,
		notifier:   notifier,
		logger:     logger,
	}
}

// Run executes cycles at the configured interval until ctx is cancelled.
// Cycles never overlap: the next tick waits for the previous cycle.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info().Dur("interval", p.cfg.PollInterval).Msg("poller started")
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("poller stopped")
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle performs a single ingestion cycle. Per-player failures are
// isolated; a rollover failure aborts only the rollover step.
func (p *Poller) RunCycle(ctx context.Context) {
	currentDay := time.Now().UTC().Format(constants.DayKeyFormat)
	p.logger.Info().Str("day", currentDay).Msg("beginning periodic update")

	summary, err := p.rollover.CheckAndRun(ctx, currentDay)
	if err != nil {
		p.logger.Error().Err(err).Msg("day rollover failed, continuing with ingestion")
	} else if summary != nil {
		p.notifier.NotifyNewDay(ctx, *summary)
	}

	day := p.currentDayTasks(ctx, currentDay)

	players, err := p.players.List(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to list players, skipping cycle")
		return
	}

	var mu sync.Mutex
	var notifications []domain.DropNotification

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.PollConcurrency)
	for _, player := range players {
		player := player
		g.Go(func() error {
			playerNotifications := p.pollPlayer(gCtx, player, currentDay, day)
			if len(playerNotifications) > 0 {
				mu.Lock()
				notifications = append(notifications, playerNotifications...)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	for _, notification := range notifications {
		p.notifier.NotifyDrop(ctx, notification)
	}
	p.logger.Info().Int("notifications", len(notifications)).Msg("finished periodic update")
}

// currentDayTasks loads today's day record, or nil when none is
// scheduled. A drop on a task-less day is persisted without notification.
func (p *Poller) currentDayTasks(ctx context.Context, currentDay string) *domain.Day {
	day, err := p.schedule.GetDay(ctx, currentDay)
	if err != nil {
		p.logger.Debug().Str("day", currentDay).Msg("no day record for today")
		return nil
	}
	return day
}

// pollPlayer runs the incremental-polling algorithm for one player. It
// never returns an error: failures are logged and the cursor is left
// untouched, so the entries are re-polled next cycle.
func (p *Poller) pollPlayer(ctx context.Context, player domain.Player, currentDay string, day *domain.Day) []domain.DropNotification {
	if strings.HasPrefix(player.RSN, p.cfg.InactivePrefix) {
		p.logger.Debug().Str("rsn", player.RSN).Msg("player flagged inactive, skipping")
		return nil
	}

	cursor, err := p.cursors.Get(ctx, player.ID)
	if err != nil {
		p.logger.Error().Err(err).Str("rsn", player.RSN).Msg("failed to load feed cursor")
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	entries, err := p.feed.RecentActivities(fetchCtx, player.RSN)
	if err != nil {
		p.logger.Warn().Err(err).Str("rsn", player.RSN).Msg("feed unavailable, cursor untouched")
		return nil
	}
	if len(entries) == 0 {
		p.logger.Info().Str("rsn", player.RSN).Msg("no activity for player")
		return nil
	}

	candidates := p.collectCandidates(player, cursor, entries)

	// The cursor always advances to the newest entry so stable entries
	// are not rescanned, even when none of them were drops.
	newMarker := entries[0].Date
	if len(candidates) == 0 && newMarker == cursor.LastSeen {
		return nil
	}

	inserted, err := p.drops.RecordPoll(ctx, player.ID, candidates, newMarker)
	if err != nil {
		p.logger.Error().Err(err).Str("rsn", player.RSN).Msg("failed to persist poll result")
		return nil
	}

	if day == nil || len(inserted) == 0 {
		return nil
	}
	return p.buildNotifications(ctx, player, currentDay, day, inserted)
}

// collectCandidates walks the feed newest to oldest, stopping at the
// cursor's dedup boundary, and classifies the new entries.
func (p *Poller) collectCandidates(player domain.Player, cursor *domain.FeedCursor, entries []api.FeedEntry) []domain.Drop {
	var candidates []domain.Drop
	for _, entry := range entries {
		if cursor.LastSeen != "" && entry.Date == cursor.LastSeen {
			break
		}
		candidate, err := p.classifier.Classify(entry)
		if err != nil {
			p.logger.Warn().Err(err).Str("rsn", player.RSN).Msg("failed to classify feed entry")
			continue
		}
		if candidate != nil {
			candidates = append(candidates, domain.Drop{
				Message:   candidate.Message,
				Timestamp: candidate.Timestamp,
			})
		}
	}
	return candidates
}

func (p *Poller) buildNotifications(ctx context.Context, player domain.Player, currentDay string, day *domain.Day, drops []domain.Drop) []domain.DropNotification {
	team, err := p.teams.GetByID(ctx, player.TeamID)
	if err != nil {
		p.logger.Error().Err(err).Str("rsn", player.RSN).Msg("failed to load player team")
		return nil
	}

	var notifications []domain.DropNotification
	for _, drop := range drops {
		for _, task := range day.Tasks {
			matched, err := Matches(task.Pattern, drop.Message)
			if err != nil {
				p.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("task pattern failed to compile")
				continue
			}
			if !matched {
				continue
			}

			count, err := p.evaluator.CountTaskDrops(ctx, team.ID, currentDay, task)
			if err != nil {
				p.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to count task drops")
				continue
			}
			notifications = append(notifications, BuildDropNotification(player.RSN, team.Name, drop.Message, task, count))
		}
	}
	return notifications
}

// BuildDropNotification renders the plain-data notification for a drop
// satisfying a task: "<rsn> found a ... for <team>" with the running
// count against the task's requirement.
func BuildDropNotification(rsn, teamName, message string, task domain.Task, count int) domain.DropNotification {
	return domain.DropNotification{
		RSN:    rsn,
		Header: fmt.Sprintf("%s %s for %s", rsn, cleanMessage(message), teamName),
		Body:   fmt.Sprintf("%s: %d/%d", task.Description, count, task.NumberRequired),
	}
}

// cleanMessage strips the leading "I " from the feed phrasing so the
// message reads naturally after the player's name.
func cleanMessage(message string) string {
	if len(message) > 2 {
		return message[2:]
	}
	return message
}
