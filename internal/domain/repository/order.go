package repository

import (
	"context"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

// OrderRepository describes persistence operations with orders and their items.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetForUpdate(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, order *model.Order) error
	UpdateAdjustments(ctx context.Context, order *model.Order) error
	SetItemsReserved(ctx context.Context, itemIDs []int64, reserved bool) error
	Delete(ctx context.Context, id int64) error
	DeleteCancelled(ctx context.Context, ids []int64) (int64, error)
	// NextSequence returns one past the highest numeric suffix among order numbers starting with prefix.
	NextSequence(ctx context.Context, prefix string) (int, error)
	Stats(ctx context.Context) (*model.OrderStats, error)
}
