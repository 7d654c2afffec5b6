package repository

import (
	"context"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

// ProductRepository manages catalog products and acts as the stock ledger.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error)
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	// DecrementStock subtracts qty only when enough stock is left; applied is false otherwise.
	DecrementStock(ctx context.Context, id int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, id int64, qty int) error
	AdjustStock(ctx context.Context, id int64, delta int) (*model.Product, error)
}

// CategoryRepository manages product categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}
