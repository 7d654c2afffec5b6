package logger

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/grocerymart/internal/config"
)

// Module wires slog logger for dependency injection.
var Module = fx.Provide(provide)

func provide(lc fx.Lifecycle, cfg *config.Config) *slog.Logger {
	logger, closer := build(cfg)
	if closer != nil {
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return closer.Close() }})
	}
	return logger
}
