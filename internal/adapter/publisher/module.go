package publisher

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/grocerymart/internal/config"
)

// Module provides the outbox event publisher.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newPublisher(p publisherParams) Publisher {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Warn("no kafka brokers configured, order events go to the log")
		return NewLogPublisher(p.Logger)
	}
	return NewKafkaPublisher(p.Config.KafkaBrokers)
}

func registerLifecycle(lc fx.Lifecycle, pub Publisher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pub.Close()
		},
	})
}
