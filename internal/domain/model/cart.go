package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a product line kept in a user's cart between sessions.
type CartItem struct {
	ID          int64
	UserID      int64
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Stock       int
	Quantity    int
	CreatedAt   time.Time
}

// LineTotal returns quantity multiplied by current unit price.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CartLine is the minimal cart row kept in the buy-now stash.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// BuyNowSession is the server-side state of an express single item checkout.
type BuyNowSession struct {
	BuyNowMode     bool       `json:"buy_now_mode"`
	SavedCartItems []CartLine `json:"saved_cart_items"`
	StartedAt      time.Time  `json:"started_at"`
}
