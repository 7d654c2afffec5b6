package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

const buyNowKeyPrefix = "buynow:"

// BuyNowStore keeps buy-now sessions as JSON values with a TTL.
type BuyNowStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ repository.BuyNowStore = (*BuyNowStore)(nil)

// NewBuyNowStore builds store over any Redis command client.
func NewBuyNowStore(client redis.Cmdable, ttl time.Duration) *BuyNowStore {
	return &BuyNowStore{client: client, ttl: ttl}
}

func buyNowKey(userID int64) string {
	return buyNowKeyPrefix + strconv.FormatInt(userID, 10)
}

// Get returns the active session or nil when the user has none.
func (s *BuyNowStore) Get(ctx context.Context, userID int64) (*model.BuyNowSession, error) {
	raw, err := s.client.Get(ctx, buyNowKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get buy now session: %w", err)
	}

	var session model.BuyNowSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode buy now session: %w", err)
	}
	return &session, nil
}

func (s *BuyNowStore) Save(ctx context.Context, userID int64, session *model.BuyNowSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode buy now session: %w", err)
	}
	if err := s.client.Set(ctx, buyNowKey(userID), string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("save buy now session: %w", err)
	}
	return nil
}

func (s *BuyNowStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, buyNowKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete buy now session: %w", err)
	}
	return nil
}

// HealthCheck pings Redis.
func (s *BuyNowStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}
