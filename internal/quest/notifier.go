package quest

import (
	"context"
	"quest-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// Notifier receives plain-data events for rendering by an external
// presentation layer (a chat bot in production). The core never formats
// platform markup.
type Notifier interface {
	NotifyDrop(ctx context.Context, n domain.DropNotification)
	NotifyNewDay(ctx context.Context, s domain.NewDaySummary)
}

// LogNotifier is the default sink: it writes every event to the log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyDrop(_ context.Context, notification domain.DropNotification) {
	n.logger.Info().
		Str("rsn", notification.RSN).
		Str("header", notification.Header).
		Str("body", notification.Body).
		Msg("drop notification")
}

func (n *LogNotifier) NotifyNewDay(_ context.Context, summary domain.NewDaySummary) {
	event := n.logger.Info().
		Str("day", summary.Day).
		Str("tasks", summary.TaskDescription)
	for _, outcome := range summary.Outcomes {
		event = event.
			Bool(outcome.TeamName+"_completed", outcome.Completed).
			Int(outcome.TeamName+"_lives", outcome.Lives)
	}
	event.Msg("new day")
}
