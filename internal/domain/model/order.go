package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes order lifecycle stage.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists recognized statuses in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var statusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// Valid reports whether status belongs to the recognized vocabulary.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Label returns human readable status name.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusProcessing:
		return "Processing"
	case OrderStatusShipped:
		return "Shipped"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// CanTransition reports whether an order in status s may move to next.
// Terminal statuses never move, cancellation is allowed from pending and processing only,
// and the happy path only moves forward.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return s == OrderStatusPending || s == OrderStatusProcessing
	}
	return statusRank[next] > statusRank[s]
}

// OrderItem is a price/quantity snapshot of one product inside an order.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Reserved    bool
}

// LineTotal returns quantity multiplied by snapshot price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order describes a purchase placed by a user.
type Order struct {
	ID              int64
	Number          string
	UserID          int64
	CustomerName    string
	CustomerEmail   string
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingAddress string
	PaymentMethod   string
	Notes           string
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
	TrackingNumber  string
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []OrderItem
}

// Subtotal sums line totals of all items.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// ComputeTotal returns subtotal + shipping + tax - discount without mutating the order.
func (o *Order) ComputeTotal() decimal.Decimal {
	return o.Subtotal().Add(o.ShippingCost).Add(o.TaxAmount).Sub(o.DiscountAmount)
}

// RecomputeTotal refreshes TotalAmount from items and adjustment fields.
func (o *Order) RecomputeTotal() decimal.Decimal {
	o.TotalAmount = o.ComputeTotal()
	return o.TotalAmount
}

// ItemCount returns total number of units across items.
func (o *Order) ItemCount() int {
	var n int
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID   *int64
	Status   OrderStatus
	Search   string
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
	OrderIDs []int64
}

// Offset returns row offset derived from Page and PerPage.
func (f OrderFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// OrderStats aggregates order counts and revenue.
type OrderStats struct {
	Total    int64
	ByStatus map[OrderStatus]int64
	Revenue  decimal.Decimal
}

// StockResult reports the outcome of one ledger mutation during a transition.
type StockResult struct {
	ProductID int64
	Quantity  int
	Applied   bool
	Reason    string
}
