package quest

import (
	"context"
	"database/sql"
	"path/filepath"
	"quest-tracker/internal/config"
	"quest-tracker/internal/database"
	"quest-tracker/internal/domain"
	"quest-tracker/internal/repository"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db        *sql.DB
	teams     *repository.TeamRepository
	players   *repository.PlayerRepository
	cursors   *repository.CursorRepository
	drops     *repository.DropRepository
	schedule  *repository.ScheduleRepository
	marker    *repository.RolloverRepository
	evaluator *Evaluator
	rollover  *Rollover
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "quest.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	teams := repository.NewTeamRepository(db, log)
	players := repository.NewPlayerRepository(db, log)
	cursors := repository.NewCursorRepository(db, log)
	drops := repository.NewDropRepository(db, log)
	schedule := repository.NewScheduleRepository(db, log)
	marker := repository.NewRolloverRepository(db, log)
	evaluator := NewEvaluator(teams, drops, schedule, log)

	return &fixture{
		db:        db,
		teams:     teams,
		players:   players,
		cursors:   cursors,
		drops:     drops,
		schedule:  schedule,
		marker:    marker,
		evaluator: evaluator,
		rollover:  NewRollover(marker, schedule, teams, evaluator, log),
	}
}

func (f *fixture) addTeam(t *testing.T, name string, lives int) *domain.Team {
	t.Helper()
	team, err := f.teams.Create(context.Background(), name, lives)
	require.NoError(t, err)
	return team
}

func (f *fixture) addPlayer(t *testing.T, rsn string, teamID int64) *domain.Player {
	t.Helper()
	player, err := f.players.Create(context.Background(), rsn, teamID)
	require.NoError(t, err)
	return player
}

func (f *fixture) addTask(t *testing.T, date, description, pattern string, required int) *domain.Task {
	t.Helper()
	task, err := f.schedule.AddTask(context.Background(), date, description, pattern, required)
	require.NoError(t, err)
	return task
}

func (f *fixture) addDrop(t *testing.T, playerID int64, message string, ts time.Time) *domain.Drop {
	t.Helper()
	drop, err := f.drops.Insert(context.Background(), domain.Drop{
		PlayerID:  playerID,
		Message:   message,
		Timestamp: ts,
	})
	require.NoError(t, err)
	return drop
}

// captureNotifier records events for assertions.
type captureNotifier struct {
	mu    sync.Mutex
	drops []domain.DropNotification
	days  []domain.NewDaySummary
}

func (n *captureNotifier) NotifyDrop(_ context.Context, d domain.DropNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drops = append(n.drops, d)
}

func (n *captureNotifier) NotifyNewDay(_ context.Context, s domain.NewDaySummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.days = append(n.days, s)
}
