package fx

import (
	"quest-tracker/internal/api"
	"quest-tracker/internal/config"
	"quest-tracker/internal/database"
	"quest-tracker/internal/logger"
	"quest-tracker/internal/quest"
	"quest-tracker/internal/repository"
	"quest-tracker/internal/server"
	"quest-tracker/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewTeamRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewCursorRepository),
	fx.Provide(repository.NewDropRepository),
	fx.Provide(repository.NewScheduleRepository),
	fx.Provide(repository.NewRolloverRepository),
	// feed boundary
	fx.Provide(api.NewFeedClient),
	fx.Provide(api.NewClassifier),
	// core
	fx.Provide(quest.NewEvaluator),
	fx.Provide(quest.NewRollover),
	fx.Provide(fx.Annotate(quest.NewLogNotifier, fx.As(new(quest.Notifier)))),
	fx.Provide(quest.NewPoller),
	// admin surface
	fx.Provide(service.NewAdminService),
	fx.Provide(server.NewAdminServer),
)
