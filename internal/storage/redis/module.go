package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/grocerymart/internal/config"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

// Module wires the Redis client and the buy-now session store.
var Module = fx.Options(
	fx.Provide(
		NewClient,
		func(client redis.UniversalClient, cfg *config.Config) *BuyNowStore {
			return NewBuyNowStore(client, cfg.BuyNowTTL)
		},
		func(s *BuyNowStore) repository.BuyNowStore { return s },
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, client redis.UniversalClient) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
}
