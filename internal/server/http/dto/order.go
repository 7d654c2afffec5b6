package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Reserved    bool            `json:"reserved"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	Number          string              `json:"order_number"`
	UserID          int64               `json:"user_id"`
	CustomerName    string              `json:"customer_name,omitempty"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	Status          string              `json:"status"`
	StatusLabel     string              `json:"status_label"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingAddress string              `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Items           []OrderItemResponse `json:"items,omitempty"`
}

type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	Pagination Pagination      `json:"pagination"`
}

// StockResultResponse reports one stock mutation made by a status change.
type StockResultResponse struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Applied   bool   `json:"applied"`
	Reason    string `json:"reason,omitempty"`
}

// OrderUpdateResponse is returned by admin order updates.
type OrderUpdateResponse struct {
	Order OrderResponse         `json:"order"`
	Stock []StockResultResponse `json:"stock,omitempty"`
}

// OrderUpdateRequest edits status and adjustment fields; absent fields stay unchanged.
type OrderUpdateRequest struct {
	Status          string           `json:"status"`
	StatusNotes     string           `json:"status_notes"`
	ShippingAddress *string          `json:"shipping_address"`
	ShippingCost    *decimal.Decimal `json:"shipping_cost"`
	TaxAmount       *decimal.Decimal `json:"tax_amount"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount"`
	Notes           *string          `json:"notes"`
	TrackingNumber  *string          `json:"tracking_number"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest is an order placed from the back office.
type CreateOrderRequest struct {
	UserID          int64              `json:"user_id"`
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
	ShippingCost    decimal.Decimal    `json:"shipping_cost"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
}

// BulkActionRequest applies one action to a set of orders.
type BulkActionRequest struct {
	Action   string  `json:"action"`
	OrderIDs []int64 `json:"order_ids"`
	Status   string  `json:"status"`
	Notes    string  `json:"notes"`
}

type BulkResultResponse struct {
	OrderID int64                 `json:"order_id"`
	From    string                `json:"from,omitempty"`
	To      string                `json:"to,omitempty"`
	Changed bool                  `json:"changed"`
	Stock   []StockResultResponse `json:"stock,omitempty"`
	Error   string                `json:"error,omitempty"`
}

type BulkActionResponse struct {
	Action  string               `json:"action"`
	Updated []BulkResultResponse `json:"updated,omitempty"`
	Deleted *int64               `json:"deleted,omitempty"`
}

type OrderStatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	Revenue  decimal.Decimal  `json:"revenue"`
}

type HistoryEntryResponse struct {
	ID        int64     `json:"id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	ActorID   int64     `json:"actor_id"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
