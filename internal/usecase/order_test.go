package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	testhelpers "github.com/polkiloo/grocerymart/internal/test"
)

var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type recorderStub struct {
	mu          sync.Mutex
	created     map[string]int
	transitions []string
	skipped     int
}

func (r *recorderStub) OrderCreated(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.created == nil {
		r.created = make(map[string]int)
	}
	r.created[path]++
}

func (r *recorderStub) StatusTransition(from, to model.OrderStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, string(from)+"->"+string(to))
}

func (r *recorderStub) StockDecrementSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

// tickingClock advances one second per call so checkout numbers never collide.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type orderFixture struct {
	store *testhelpers.MemoryStore
	uc    *OrderUseCase
	rec   *recorderStub
	buyer int64
	admin int64
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	clock := tickingClock(testNow)
	store.Now = clock
	rec := &recorderStub{}
	uc := NewOrderUseCase(store, nil, rec, OrderOptions{
		ShippingCost: decimal.NewFromInt(15000),
		TaxRate:      decimal.RequireFromString("0.10"),
		EventsTopic:  "grocerymart.orders",
	}).WithClock(clock)

	return &orderFixture{
		store: store,
		uc:    uc,
		rec:   rec,
		buyer: store.SeedUser("buyer@example.com", "Bea Buyer", model.RoleBuyer),
		admin: store.SeedUser("admin@example.com", "Ada Admin", model.RoleAdmin),
	}
}

func (f *orderFixture) adminOrder(t *testing.T, items ...OrderItemInput) *model.Order {
	t.Helper()
	order, err := f.uc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          f.buyer,
		Items:           items,
		ShippingAddress: "Main st 1",
		ShippingCost:    decimal.NewFromInt(500),
		TaxAmount:       decimal.NewFromInt(100),
		DiscountAmount:  decimal.NewFromInt(50),
	}, AdminPath)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (f *orderFixture) checkoutOrder(t *testing.T, items ...OrderItemInput) *model.Order {
	t.Helper()
	order, err := f.uc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          f.buyer,
		Items:           items,
		ShippingAddress: "Main st 1",
	}, CheckoutPath)
	if err != nil {
		t.Fatalf("checkout order: %v", err)
	}
	return order
}

func TestCreateOrderAdminPath(t *testing.T) {
	f := newOrderFixture(t)
	apples := f.store.SeedProduct("Apples", 1000, 10)

	order := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 2})

	if order.Number != "ORD-20261014-0001" {
		t.Fatalf("unexpected number %q", order.Number)
	}
	if order.Status != model.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(2550)) {
		t.Fatalf("unexpected total %s", order.TotalAmount)
	}
	if order.CustomerName != "Bea Buyer" || order.CustomerEmail != "buyer@example.com" {
		t.Fatalf("customer not filled: %+v", order)
	}
	if order.Items[0].ProductName != "Apples" || order.Items[0].Reserved {
		t.Fatalf("unexpected item snapshot %+v", order.Items[0])
	}
	if stock := f.store.StockOf(apples); stock != 10 {
		t.Fatalf("admin orders must not touch stock on creation, got %d", stock)
	}

	second := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	if second.Number != "ORD-20261014-0002" {
		t.Fatalf("expected next daily sequence, got %q", second.Number)
	}
	if f.rec.created["admin"] != 2 {
		t.Fatalf("expected creation metric per order, got %v", f.rec.created)
	}

	events := f.store.Events()
	if len(events) != 2 || events[0].Topic != "grocerymart.orders" {
		t.Fatalf("unexpected outbox %+v", events)
	}
	var payload OrderEvent
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if payload.Type != EventOrderCreated || payload.OrderNumber != order.Number || payload.Status != model.OrderStatusPending {
		t.Fatalf("unexpected event %+v", payload)
	}
	if f.store.HistoryRows() != 2 {
		t.Fatalf("expected one creation audit row per order, got %d", f.store.HistoryRows())
	}
}

func TestCreateOrderCheckoutPathPricing(t *testing.T) {
	f := newOrderFixture(t)
	milk := f.store.SeedProduct("Milk", 10000, 5)

	order := f.checkoutOrder(t, OrderItemInput{ProductID: milk, Quantity: 2})

	if !order.Subtotal().Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected subtotal %s", order.Subtotal())
	}
	if !order.ShippingCost.Equal(decimal.NewFromInt(15000)) || !order.TaxAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected charges: shipping %s tax %s", order.ShippingCost, order.TaxAmount)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(37000)) {
		t.Fatalf("unexpected total %s", order.TotalAmount)
	}
	if !strings.HasPrefix(order.Number, "ORD-") || !strings.HasSuffix(order.Number, "-1") {
		t.Fatalf("unexpected checkout number %q", order.Number)
	}
	if !order.Items[0].Reserved {
		t.Fatal("checkout items must be reserved")
	}
	if stock := f.store.StockOf(milk); stock != 3 {
		t.Fatalf("expected stock 3, got %d", stock)
	}
}

func TestCreateOrderTaxRounding(t *testing.T) {
	f := newOrderFixture(t)
	bread := f.store.SeedProduct("Bread", 0, 5)
	if err := f.store.Products().Update(context.Background(), &model.Product{ID: bread, Name: "Bread", Price: decimal.RequireFromString("3.33"), IsActive: true}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	order := f.checkoutOrder(t, OrderItemInput{ProductID: bread, Quantity: 1})
	if !order.TaxAmount.Equal(decimal.RequireFromString("0.33")) {
		t.Fatalf("expected tax rounded to cents, got %s", order.TaxAmount)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("15003.66")) {
		t.Fatalf("unexpected total %s", order.TotalAmount)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	apples := f.store.SeedProduct("Apples", 1000, 10)

	cases := map[string]struct {
		input CreateOrderInput
		field string
	}{
		"no items": {
			input: CreateOrderInput{UserID: f.buyer, ShippingAddress: "x"},
			field: "items",
		},
		"bad quantity": {
			input: CreateOrderInput{UserID: f.buyer, ShippingAddress: "x", Items: []OrderItemInput{{ProductID: apples, Quantity: 0}}},
			field: "items[0].quantity",
		},
		"no address": {
			input: CreateOrderInput{UserID: f.buyer, ShippingAddress: "  ", Items: []OrderItemInput{{ProductID: apples, Quantity: 1}}},
			field: "shipping_address",
		},
		"negative shipping": {
			input: CreateOrderInput{UserID: f.buyer, ShippingAddress: "x", Items: []OrderItemInput{{ProductID: apples, Quantity: 1}}, ShippingCost: decimal.NewFromInt(-1)},
			field: "shipping_cost",
		},
		"unknown product": {
			input: CreateOrderInput{UserID: f.buyer, ShippingAddress: "x", Items: []OrderItemInput{{ProductID: 999, Quantity: 1}}},
			field: "items[0].product_id",
		},
		"negative total": {
			input: CreateOrderInput{UserID: f.buyer, ShippingAddress: "x", Items: []OrderItemInput{{ProductID: apples, Quantity: 1}}, DiscountAmount: decimal.NewFromInt(5000)},
			field: "discount_amount",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.CreateOrder(context.Background(), tc.input, AdminPath)
			var verr *domainErrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Fields[tc.field] == "" {
				t.Fatalf("expected %s to be rejected, got %v", tc.field, verr)
			}
		})
	}

	if f.store.OrderCount() != 0 || len(f.store.Events()) != 0 {
		t.Fatal("rejected orders must not write anything")
	}
}

func TestCreateOrderRejectsInactiveProduct(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	if err := f.store.Products().Update(ctx, &model.Product{ID: apples, Name: "Apples", Price: decimal.NewFromInt(1000)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.uc.CreateOrder(ctx, CreateOrderInput{UserID: f.buyer, ShippingAddress: "x", Items: []OrderItemInput{{ProductID: apples, Quantity: 1}}}, CheckoutPath)
	if !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderAggregatesQuantityPerProduct(t *testing.T) {
	f := newOrderFixture(t)
	apples := f.store.SeedProduct("Apples", 1000, 3)

	_, err := f.uc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          f.buyer,
		ShippingAddress: "x",
		Items:           []OrderItemInput{{ProductID: apples, Quantity: 2}, {ProductID: apples, Quantity: 2}},
	}, AdminPath)

	var stockErr *domainErrors.InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.Requested != 4 || stockErr.Available != 3 {
		t.Fatalf("expected aggregated stock error, got %v", err)
	}
}

func TestUpdateStatusAdminOrderLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	order := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 4})

	updated, stock, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusProcessing, "picked")
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	if updated.Status != model.OrderStatusProcessing || len(stock) != 1 || !stock[0].Applied {
		t.Fatalf("unexpected result %+v %+v", updated, stock)
	}
	if f.store.StockOf(apples) != 6 {
		t.Fatalf("expected stock 6, got %d", f.store.StockOf(apples))
	}

	shipped, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusShipped, "")
	if err != nil {
		t.Fatalf("shipped: %v", err)
	}
	if shipped.ShippedAt == nil {
		t.Fatal("expected shipped_at to be stamped")
	}

	delivered, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusDelivered, "")
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be stamped")
	}

	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusCancelled, ""); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("delivered must be terminal, got %v", err)
	}

	history, err := f.uc.History(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 4 || history[1].NewStatus != model.OrderStatusProcessing || history[1].Notes != "picked" || history[1].ActorID != f.admin {
		t.Fatalf("unexpected history %+v", history)
	}
	if strings.Join(f.rec.transitions, ",") != "pending->processing,processing->shipped,shipped->delivered" {
		t.Fatalf("unexpected transition metrics %v", f.rec.transitions)
	}
}

func TestUpdateStatusSoftStockSkip(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 3)
	order := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 3})

	if _, err := f.store.Products().AdjustStock(ctx, apples, -2); err != nil {
		t.Fatalf("adjust stock: %v", err)
	}

	updated, stock, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusProcessing, "")
	if err != nil {
		t.Fatalf("soft skip must not fail the transition: %v", err)
	}
	if updated.Status != model.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
	if len(stock) != 1 || stock[0].Applied || stock[0].Reason != "insufficient stock" {
		t.Fatalf("unexpected stock results %+v", stock)
	}
	if f.store.StockOf(apples) != 1 || f.rec.skipped != 1 {
		t.Fatalf("expected stock untouched and a skip metric, stock %d skipped %d", f.store.StockOf(apples), f.rec.skipped)
	}

	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.store.StockOf(apples) != 1 {
		t.Fatalf("skipped items must not be restored, got %d", f.store.StockOf(apples))
	}
}

func TestUpdateStatusCheckoutOrderIsNotDecrementedTwice(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	milk := f.store.SeedProduct("Milk", 10000, 5)
	order := f.checkoutOrder(t, OrderItemInput{ProductID: milk, Quantity: 2})

	_, stock, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusProcessing, "")
	if err != nil {
		t.Fatalf("processing: %v", err)
	}
	if len(stock) != 1 || stock[0].Applied || stock[0].Reason != "already reserved" {
		t.Fatalf("unexpected stock results %+v", stock)
	}
	if f.store.StockOf(milk) != 3 {
		t.Fatalf("expected stock 3, got %d", f.store.StockOf(milk))
	}
	if f.rec.skipped != 0 {
		t.Fatalf("reserved items are not skips, got %d", f.rec.skipped)
	}
}

func TestUpdateStatusCancelPendingCheckoutRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	milk := f.store.SeedProduct("Milk", 10000, 5)
	order := f.checkoutOrder(t, OrderItemInput{ProductID: milk, Quantity: 2})

	_, stock, err := f.uc.UpdateStatus(context.Background(), f.admin, order.ID, model.OrderStatusCancelled, "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(stock) != 1 || !stock[0].Applied {
		t.Fatalf("expected restore result, got %+v", stock)
	}
	if f.store.StockOf(milk) != 5 {
		t.Fatalf("expected stock restored to 5, got %d", f.store.StockOf(milk))
	}
}

func TestUpdateStatusRules(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 100)

	cases := []struct {
		name string
		path []model.OrderStatus
		next model.OrderStatus
		err  error
	}{
		{"skip forward", nil, model.OrderStatusShipped, nil},
		{"backward", []model.OrderStatus{model.OrderStatusShipped}, model.OrderStatusProcessing, domainErrors.ErrInvalidTransition},
		{"cancel shipped", []model.OrderStatus{model.OrderStatusShipped}, model.OrderStatusCancelled, domainErrors.ErrInvalidTransition},
		{"reopen cancelled", []model.OrderStatus{model.OrderStatusCancelled}, model.OrderStatusProcessing, domainErrors.ErrInvalidTransition},
		{"unknown status", nil, model.OrderStatus("packed"), domainErrors.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
			for _, status := range tc.path {
				if _, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, status, ""); err != nil {
					t.Fatalf("setup transition to %s: %v", status, err)
				}
			}
			_, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, tc.next, "")
			if tc.err == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}

	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, 9999, model.OrderStatusShipped, ""); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBulkUpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	apples := f.store.SeedProduct("Apples", 1000, 10)
	first := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	second := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 2})

	results, err := f.uc.BulkUpdateStatus(context.Background(), f.admin, []int64{first.ID, second.ID, first.ID}, model.OrderStatusProcessing, "batch")
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected duplicate ids to collapse, got %d results", len(results))
	}
	if f.store.StockOf(apples) != 7 {
		t.Fatalf("expected stock 7, got %d", f.store.StockOf(apples))
	}
	if len(f.rec.transitions) != 2 {
		t.Fatalf("expected two transition metrics, got %v", f.rec.transitions)
	}

	if _, err := f.uc.BulkUpdateStatus(context.Background(), f.admin, nil, model.OrderStatusShipped, ""); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error for empty ids, got %v", err)
	}
}

func TestBulkUpdateStatusSkipsRefusedOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	open := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	done := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, done.ID, model.OrderStatusDelivered, ""); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	f.rec.transitions = nil

	results, err := f.uc.BulkUpdateStatus(ctx, f.admin, []int64{open.ID, done.ID, 9999}, model.OrderStatusShipped, "")
	if err != nil {
		t.Fatalf("refused orders must not abort the batch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected a result per order, got %+v", results)
	}
	if !results[0].Changed || results[0].Err != nil || results[0].Order.Status != model.OrderStatusShipped {
		t.Fatalf("unexpected result for open order %+v", results[0])
	}
	if results[1].Changed || !errors.Is(results[1].Err, domainErrors.ErrInvalidTransition) || results[1].From != model.OrderStatusDelivered {
		t.Fatalf("expected delivered order to be skipped, got %+v", results[1])
	}
	if results[2].OrderID != 9999 || !errors.Is(results[2].Err, domainErrors.ErrNotFound) {
		t.Fatalf("expected missing order to be skipped, got %+v", results[2])
	}

	shipped, err := f.uc.GetOrder(ctx, open.ID)
	if err != nil || shipped.Status != model.OrderStatusShipped {
		t.Fatalf("expected open order shipped, got %+v %v", shipped, err)
	}
	delivered, err := f.uc.GetOrder(ctx, done.ID)
	if err != nil || delivered.Status != model.OrderStatusDelivered {
		t.Fatalf("expected delivered order untouched, got %+v %v", delivered, err)
	}
	if len(f.rec.transitions) != 1 {
		t.Fatalf("expected one transition metric, got %v", f.rec.transitions)
	}
}

func TestOrderedProductCannotBeDeleted(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	catalog := NewCatalogUseCase(f.store.Products(), f.store.Categories())
	apples := f.store.SeedProduct("Apples", 1000, 5)
	order := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 2})

	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusProcessing, ""); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := catalog.DeleteProduct(ctx, apples); !errors.Is(err, domainErrors.ErrProductInUse) {
		t.Fatalf("expected ordered product to be kept, got %v", err)
	}

	_, stock, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusCancelled, "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(stock) != 1 || !stock[0].Applied || f.store.StockOf(apples) != 5 {
		t.Fatalf("expected reserved stock restored, got %+v stock %d", stock, f.store.StockOf(apples))
	}
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	order := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})

	if err := f.uc.DeleteOrder(ctx, order.ID); !errors.Is(err, domainErrors.ErrOrderNotDeletable) {
		t.Fatalf("expected pending order to be protected, got %v", err)
	}
	if _, err := f.uc.GetOrder(ctx, order.ID); err != nil {
		t.Fatalf("order must survive rejected delete: %v", err)
	}

	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.uc.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
	if _, err := f.uc.GetOrder(ctx, order.ID); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected order gone, got %v", err)
	}
	if f.store.ItemCount() != 0 {
		t.Fatalf("items must be removed with the order, got %d", f.store.ItemCount())
	}
}

func TestBulkDeleteSkipsActiveOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	keep := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	drop := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, drop.ID, model.OrderStatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	n, err := f.uc.BulkDelete(ctx, []int64{keep.ID, drop.ID})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if n != 1 || f.store.OrderCount() != 1 {
		t.Fatalf("expected only cancelled order removed, deleted %d left %d", n, f.store.OrderCount())
	}
}

func TestUpdateAdjustments(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	order := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 2})

	shipping := decimal.NewFromInt(0)
	discount := decimal.NewFromInt(200)
	tracking := " TRK-1 "
	updated, err := f.uc.UpdateAdjustments(ctx, order.ID, AdjustmentInput{ShippingCost: &shipping, DiscountAmount: &discount, TrackingNumber: &tracking})
	if err != nil {
		t.Fatalf("update adjustments: %v", err)
	}
	if !updated.TotalAmount.Equal(decimal.NewFromInt(1900)) || updated.TrackingNumber != "TRK-1" {
		t.Fatalf("unexpected order %+v", updated)
	}
	stored, _ := f.uc.GetOrder(ctx, order.ID)
	if !stored.TotalAmount.Equal(stored.ComputeTotal()) {
		t.Fatalf("stored total %s does not match components %s", stored.TotalAmount, stored.ComputeTotal())
	}

	huge := decimal.NewFromInt(100000)
	if _, err := f.uc.UpdateAdjustments(ctx, order.ID, AdjustmentInput{DiscountAmount: &huge}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected negative total to be rejected, got %v", err)
	}
	negative := decimal.NewFromInt(-1)
	if _, err := f.uc.UpdateAdjustments(ctx, order.ID, AdjustmentInput{TaxAmount: &negative}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected negative tax to be rejected, got %v", err)
	}

	after, _ := f.uc.GetOrder(ctx, order.ID)
	if !after.TotalAmount.Equal(decimal.NewFromInt(1900)) {
		t.Fatalf("rejected adjustment must not persist, total %s", after.TotalAmount)
	}
}

func TestCancelByBuyer(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	milk := f.store.SeedProduct("Milk", 10000, 5)
	order := f.checkoutOrder(t, OrderItemInput{ProductID: milk, Quantity: 1})

	if _, err := f.uc.CancelByBuyer(ctx, f.admin, order.ID); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden for foreign order, got %v", err)
	}

	cancelled, err := f.uc.CancelByBuyer(ctx, f.buyer, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.OrderStatusCancelled || f.store.StockOf(milk) != 5 {
		t.Fatalf("expected cancelled order and restored stock, got %s %d", cancelled.Status, f.store.StockOf(milk))
	}

	if _, err := f.uc.CancelByBuyer(ctx, f.buyer, order.ID); !errors.Is(err, domainErrors.ErrNotCancellable) {
		t.Fatalf("expected not cancellable, got %v", err)
	}

	shipped := f.checkoutOrder(t, OrderItemInput{ProductID: milk, Quantity: 1})
	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, shipped.ID, model.OrderStatusShipped, ""); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if _, err := f.uc.CancelByBuyer(ctx, f.buyer, shipped.ID); !errors.Is(err, domainErrors.ErrNotCancellable) {
		t.Fatalf("expected shipped order not cancellable, got %v", err)
	}
}

func TestOrderReads(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	own := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	other, err := f.uc.CreateOrder(ctx, CreateOrderInput{UserID: f.admin, ShippingAddress: "HQ", Items: []OrderItemInput{{ProductID: apples, Quantity: 1}}}, AdminPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.uc.GetOwnOrder(ctx, f.buyer, other.ID); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("foreign order must look missing, got %v", err)
	}
	if got, err := f.uc.GetOwnOrder(ctx, f.buyer, own.ID); err != nil || got.ID != own.ID {
		t.Fatalf("expected own order, got %v %v", got, err)
	}

	mine, total, err := f.uc.ListOwnOrders(ctx, f.buyer, model.OrderFilter{PerPage: 500})
	if err != nil || total != 1 || len(mine) != 1 || mine[0].ID != own.ID {
		t.Fatalf("unexpected own list %v %d %v", mine, total, err)
	}

	all, total, err := f.uc.ListOrders(ctx, model.OrderFilter{Search: "ada"})
	if err != nil || total != 1 || all[0].ID != other.ID {
		t.Fatalf("expected search by customer name, got %v %d %v", all, total, err)
	}

	if _, _, err := f.uc.ListOrders(ctx, model.OrderFilter{Status: "packed"}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected unknown status filter rejected, got %v", err)
	}

	if _, _, err := f.uc.UpdateStatus(ctx, f.admin, own.ID, model.OrderStatusDelivered, ""); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	stats, err := f.uc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.ByStatus[model.OrderStatusDelivered] != 1 || !stats.Revenue.Equal(decimal.NewFromInt(1550)) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if _, err := f.uc.History(ctx, 9999); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found history, got %v", err)
	}
}

func TestExportOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apples := f.store.SeedProduct("Apples", 1000, 10)
	first := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})
	second := f.adminOrder(t, OrderItemInput{ProductID: apples, Quantity: 1})

	var buf bytes.Buffer
	if err := f.uc.Export(ctx, &buf, model.OrderFilter{OrderIDs: []int64{second.ID}, PerPage: 1}); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, second.Number) || strings.Contains(out, first.Number) {
		t.Fatalf("unexpected export %q", out)
	}
	if !strings.Contains(out, "Bea Buyer") {
		t.Fatalf("export must carry the customer name: %q", out)
	}
}

func TestNormalizePage(t *testing.T) {
	cases := []struct{ page, perPage, wantPage, wantPer int }{
		{0, 0, 1, 20},
		{3, 50, 3, 50},
		{-1, 1000, 1, 100},
	}
	for _, tc := range cases {
		page, per := NormalizePage(tc.page, tc.perPage)
		if page != tc.wantPage || per != tc.wantPer {
			t.Fatalf("NormalizePage(%d, %d) = %d, %d", tc.page, tc.perPage, page, per)
		}
	}
}
