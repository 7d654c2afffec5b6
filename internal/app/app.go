package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/grocerymart/internal/adapter/publisher"
	"github.com/polkiloo/grocerymart/internal/config"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
	"github.com/polkiloo/grocerymart/internal/metrics"
	"github.com/polkiloo/grocerymart/internal/server/http/handlers"
	"github.com/polkiloo/grocerymart/internal/storage/postgres"
	"github.com/polkiloo/grocerymart/internal/storage/redis"
	"github.com/polkiloo/grocerymart/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewStoreFacade,
		func(f *StoreFacade) handlers.StoreFacade { return f },
		newHealthChecks,
		newHTTPServer,
		newOutboxRelay,
	),
	fx.Invoke(registerLifecycle),
)

type healthParams struct {
	fx.In

	Storage  *postgres.Storage
	Sessions *redis.BuyNowStore
}

func newHealthChecks(p healthParams) map[string]HealthChecker {
	return map[string]HealthChecker{
		"postgres": p.Storage,
		"redis":    p.Sessions,
	}
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type relayParams struct {
	fx.In

	Outbox    repository.OutboxRepository
	Publisher publisher.Publisher
	Metrics   *metrics.Metrics
	Config    *config.Config
	Logger    *slog.Logger
}

func newOutboxRelay(p relayParams) *worker.OutboxRelay {
	return worker.NewOutboxRelay(
		p.Outbox,
		p.Publisher,
		p.Metrics,
		p.Config.OutboxPollInterval,
		p.Config.OutboxBatchSize,
		p.Config.OutboxWorkers,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Relay      *worker.OutboxRelay
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting grocerymart", slog.String("addr", p.Server.Addr))
			p.Relay.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			p.Relay.Stop()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("grocerymart stopped")
			return nil
		},
	})
}
