package repository

import (
	"context"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

// CartRepository stores per-user cart lines.
type CartRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error)
	GetByIDs(ctx context.Context, userID int64, ids []int64) ([]model.CartItem, error)
	Add(ctx context.Context, userID, productID int64, qty int) (*model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID int64, qty int) error
	Remove(ctx context.Context, userID, itemID int64) error
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) error
	Clear(ctx context.Context, userID int64) error
}

// BuyNowStore keeps the stashed cart of an express checkout.
type BuyNowStore interface {
	Get(ctx context.Context, userID int64) (*model.BuyNowSession, error)
	Save(ctx context.Context, userID int64, session *model.BuyNowSession) error
	Delete(ctx context.Context, userID int64) error
}
