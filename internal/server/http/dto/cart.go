package dto

import "github.com/shopspring/decimal"

type CartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartItemUpdateRequest struct {
	Quantity int `json:"quantity"`
}

type CartItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Stock       int             `json:"stock"`
}

// CartResponse is the current cart with its subtotal.
type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	BuyNowMode bool               `json:"buy_now_mode"`
}

// CheckoutRequest turns the cart, or the selected lines of it, into an order.
type CheckoutRequest struct {
	ShippingAddress string  `json:"shipping_address"`
	PaymentMethod   string  `json:"payment_method"`
	Notes           string  `json:"notes"`
	CartItemIDs     []int64 `json:"cart_item_ids"`
}
