package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/grocerymart/internal/adapter/publisher"
	"github.com/polkiloo/grocerymart/internal/app"
	"github.com/polkiloo/grocerymart/internal/config"
	"github.com/polkiloo/grocerymart/internal/logger"
	"github.com/polkiloo/grocerymart/internal/metrics"
	"github.com/polkiloo/grocerymart/internal/pkg/auth"
	"github.com/polkiloo/grocerymart/internal/server/http/router"
	"github.com/polkiloo/grocerymart/internal/storage/postgres"
	"github.com/polkiloo/grocerymart/internal/storage/redis"
	"github.com/polkiloo/grocerymart/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		redis.Module,
		publisher.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
