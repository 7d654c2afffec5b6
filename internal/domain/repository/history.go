package repository

import (
	"context"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

// HistoryRepository appends and reads order status audit entries.
type HistoryRepository interface {
	Append(ctx context.Context, entry *model.StatusHistoryEntry) error
	ListByOrder(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error)
}

// OutboxRepository stores events until the relay publishes them.
type OutboxRepository interface {
	Insert(ctx context.Context, event *model.OutboxEvent) error
	ClaimBatch(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
	Release(ctx context.Context, id int64) error
}
