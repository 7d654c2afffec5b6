package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
	"github.com/polkiloo/grocerymart/internal/export"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100

	reasonInsufficientStock = "insufficient stock"
	reasonAlreadyReserved   = "already reserved"
	reasonRestored          = "restored"
)

// OrderOptions configures pricing and event routing of the order lifecycle.
type OrderOptions struct {
	ShippingCost decimal.Decimal
	TaxRate      decimal.Decimal
	EventsTopic  string
}

// OrderUseCase owns the order state machine and keeps stock in step with it.
type OrderUseCase struct {
	store    repository.Store
	logger   *slog.Logger
	recorder Recorder
	opts     OrderOptions
	now      func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(store repository.Store, logger *slog.Logger, recorder Recorder, opts OrderOptions) *OrderUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &OrderUseCase{store: store, logger: logger, recorder: recorder, opts: opts, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (u *OrderUseCase) WithClock(now func() time.Time) *OrderUseCase {
	u.now = now
	return u
}

// OrderItemInput references a product and, on checkout, the cart row it came from.
type OrderItemInput struct {
	ProductID  int64
	Quantity   int
	CartItemID int64
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	UserID          int64
	Items           []OrderItemInput
	ShippingAddress string
	PaymentMethod   string
	Notes           string
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
}

func (in CreateOrderInput) validate(path CreationPath) *domainErrors.ValidationError {
	verr := &domainErrors.ValidationError{}
	if in.UserID <= 0 {
		verr.Add("user_id", "is required")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "must not be empty")
	}
	for i, item := range in.Items {
		if item.ProductID <= 0 {
			verr.Add(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if item.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		verr.Add("shipping_address", "is required")
	}
	if !path.ApplyDefaultCharges {
		if in.ShippingCost.IsNegative() {
			verr.Add("shipping_cost", "must not be negative")
		}
		if in.TaxAmount.IsNegative() {
			verr.Add("tax_amount", "must not be negative")
		}
		if in.DiscountAmount.IsNegative() {
			verr.Add("discount_amount", "must not be negative")
		}
	}
	return verr
}

// CreateOrder validates input, checks stock for every item and persists the order in one transaction.
// Nothing is written when any item lacks stock.
func (u *OrderUseCase) CreateOrder(ctx context.Context, in CreateOrderInput, path CreationPath) (*model.Order, error) {
	if verr := in.validate(path); !verr.Empty() {
		return nil, verr
	}

	need := make(map[int64]int, len(in.Items))
	ids := make([]int64, 0, len(in.Items))
	for _, item := range in.Items {
		if _, seen := need[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		need[item.ProductID] += item.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var order *model.Order
	err := u.store.WithinTransaction(ctx, func(f repository.Factory) error {
		products, err := f.Products().LockForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		verr := &domainErrors.ValidationError{}
		for i, item := range in.Items {
			p, ok := products[item.ProductID]
			switch {
			case !ok:
				verr.Add(fmt.Sprintf("items[%d].product_id", i), "unknown product")
			case !p.IsActive:
				verr.Add(fmt.Sprintf("items[%d].product_id", i), "product is not available")
			}
		}
		if !verr.Empty() {
			return verr
		}

		for _, item := range in.Items {
			p := products[item.ProductID]
			if need[p.ID] > p.Stock {
				return &domainErrors.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   p.Stock,
					Requested:   need[p.ID],
				}
			}
		}

		customer, err := f.Users().GetByID(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("load customer: %w", err)
		}

		now := u.now()
		number, err := path.Number.Next(ctx, f.Orders(), in.UserID, now)
		if err != nil {
			return err
		}

		order = &model.Order{
			Number:          number,
			UserID:          in.UserID,
			CustomerName:    customer.Name,
			CustomerEmail:   customer.Email,
			Status:          model.OrderStatusPending,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			PaymentMethod:   in.PaymentMethod,
			Notes:           in.Notes,
			ShippingCost:    in.ShippingCost,
			TaxAmount:       in.TaxAmount,
			DiscountAmount:  in.DiscountAmount,
		}
		for _, item := range in.Items {
			p := products[item.ProductID]
			order.Items = append(order.Items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    item.Quantity,
				Price:       p.Price,
				Reserved:    path.ReserveOnCreate,
			})
		}

		if path.ApplyDefaultCharges {
			order.ShippingCost = u.opts.ShippingCost
			order.TaxAmount = order.Subtotal().Mul(u.opts.TaxRate).Round(2)
			order.DiscountAmount = decimal.Zero
		}
		if order.RecomputeTotal().IsNegative() {
			return domainErrors.NewValidationError("discount_amount", "exceeds order amount")
		}

		if path.ReserveOnCreate {
			for _, item := range order.Items {
				applied, err := f.Products().DecrementStock(ctx, item.ProductID, item.Quantity)
				if err != nil {
					return fmt.Errorf("reserve stock: %w", err)
				}
				if !applied {
					p := products[item.ProductID]
					return &domainErrors.InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: item.Quantity}
				}
			}
		}

		if err := f.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		var cartIDs []int64
		for _, item := range in.Items {
			if item.CartItemID > 0 {
				cartIDs = append(cartIDs, item.CartItemID)
			}
		}
		if err := f.Carts().DeleteByIDs(ctx, in.UserID, cartIDs); err != nil {
			return fmt.Errorf("consume cart: %w", err)
		}

		if err := f.History().Append(ctx, &model.StatusHistoryEntry{
			OrderID:   order.ID,
			NewStatus: model.OrderStatusPending,
			ActorID:   in.UserID,
			Notes:     "order created via " + path.Name,
		}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		return u.enqueueEvent(ctx, f.Outbox(), EventOrderCreated, order, "", in.UserID)
	})
	if err != nil {
		return nil, err
	}

	u.recorder.OrderCreated(path.Name)
	u.logger.Info("order created",
		slog.String("order_number", order.Number),
		slog.Int64("user_id", order.UserID),
		slog.String("path", path.Name),
		slog.String("total", order.TotalAmount.StringFixed(2)),
	)
	return order, nil
}

// TransitionResult reports the effect of one status change. In bulk mode Err holds the
// refusal for an order that was skipped.
type TransitionResult struct {
	OrderID int64
	Order   *model.Order
	Stock   []model.StockResult
	Changed bool
	From    model.OrderStatus
	Err     error
}

// UpdateStatus moves one order to status and applies the stock side effects of that move.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus, notes string) (*model.Order, []model.StockResult, error) {
	if !status.Valid() {
		return nil, nil, domainErrors.NewValidationError("status", "unknown status")
	}

	var res *TransitionResult
	err := u.store.WithinTransaction(ctx, func(f repository.Factory) error {
		var err error
		res, err = u.transition(ctx, f, actorID, orderID, status, notes)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	u.recordTransition(res)
	return res.Order, res.Stock, nil
}

// BulkUpdateStatus applies the same transition to every order in one transaction.
// Orders that are missing or refuse the transition are skipped and reported in their
// result. Any other failure rolls back the whole batch.
func (u *OrderUseCase) BulkUpdateStatus(ctx context.Context, actorID int64, orderIDs []int64, status model.OrderStatus, notes string) ([]TransitionResult, error) {
	if !status.Valid() {
		return nil, domainErrors.NewValidationError("status", "unknown status")
	}
	ids := uniqueIDs(orderIDs)
	if len(ids) == 0 {
		return nil, domainErrors.NewValidationError("order_ids", "must not be empty")
	}

	var results []TransitionResult
	err := u.store.WithinTransaction(ctx, func(f repository.Factory) error {
		results = results[:0]
		for _, id := range ids {
			res, err := u.transition(ctx, f, actorID, id, status, notes)
			if isRefusal(err) {
				skipped := TransitionResult{OrderID: id, Err: err}
				if res != nil {
					skipped.Order, skipped.From = res.Order, res.From
				}
				results = append(results, skipped)
				continue
			}
			if err != nil {
				return fmt.Errorf("order %d: %w", id, err)
			}
			results = append(results, *res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range results {
		u.recordTransition(&results[i])
	}
	return results, nil
}

func (u *OrderUseCase) transition(ctx context.Context, f repository.Factory, actorID, orderID int64, next model.OrderStatus, notes string) (*TransitionResult, error) {
	order, err := f.Orders().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	old := order.Status
	res := &TransitionResult{OrderID: orderID, Order: order, From: old}
	if old == next {
		return res, nil
	}
	if !old.CanTransition(next) {
		return res, fmt.Errorf("%w: %s -> %s", domainErrors.ErrInvalidTransition, old, next)
	}

	now := u.now()
	switch next {
	case model.OrderStatusProcessing:
		var reserved []int64
		for i := range order.Items {
			item := &order.Items[i]
			result := model.StockResult{ProductID: item.ProductID, Quantity: item.Quantity}
			if item.Reserved {
				result.Reason = reasonAlreadyReserved
				res.Stock = append(res.Stock, result)
				continue
			}
			applied, err := f.Products().DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return nil, fmt.Errorf("decrement stock: %w", err)
			}
			if applied {
				result.Applied = true
				item.Reserved = true
				reserved = append(reserved, item.ID)
			} else {
				result.Reason = reasonInsufficientStock
				u.logger.Warn("stock decrement skipped",
					slog.String("order_number", order.Number),
					slog.Int64("product_id", item.ProductID),
					slog.Int("quantity", item.Quantity),
				)
			}
			res.Stock = append(res.Stock, result)
		}
		if err := f.Orders().SetItemsReserved(ctx, reserved, true); err != nil {
			return nil, err
		}
	case model.OrderStatusCancelled:
		var released []int64
		for i := range order.Items {
			item := &order.Items[i]
			if !item.Reserved {
				continue
			}
			if err := f.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return nil, fmt.Errorf("restore stock: %w", err)
			}
			item.Reserved = false
			released = append(released, item.ID)
			res.Stock = append(res.Stock, model.StockResult{ProductID: item.ProductID, Quantity: item.Quantity, Applied: true, Reason: reasonRestored})
		}
		if err := f.Orders().SetItemsReserved(ctx, released, false); err != nil {
			return nil, err
		}
	case model.OrderStatusShipped:
		order.ShippedAt = &now
	case model.OrderStatusDelivered:
		order.DeliveredAt = &now
	}

	order.Status = next
	order.RecomputeTotal()
	if err := f.Orders().UpdateStatus(ctx, order); err != nil {
		return nil, err
	}
	if err := f.History().Append(ctx, &model.StatusHistoryEntry{
		OrderID:   order.ID,
		OldStatus: old,
		NewStatus: next,
		ActorID:   actorID,
		Notes:     notes,
	}); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	if err := u.enqueueEvent(ctx, f.Outbox(), EventOrderStatusChanged, order, old, actorID); err != nil {
		return nil, err
	}

	res.Changed = true
	return res, nil
}

// isRefusal reports errors raised before the transition writes anything.
func isRefusal(err error) bool {
	return errors.Is(err, domainErrors.ErrInvalidTransition) || errors.Is(err, domainErrors.ErrNotFound)
}

func (u *OrderUseCase) recordTransition(res *TransitionResult) {
	if !res.Changed {
		return
	}
	u.recorder.StatusTransition(res.From, res.Order.Status)
	for _, s := range res.Stock {
		if !s.Applied && s.Reason == reasonInsufficientStock {
			u.recorder.StockDecrementSkipped()
		}
	}
}

// CancelByBuyer lets the owner cancel an order that has not shipped yet.
func (u *OrderUseCase) CancelByBuyer(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := u.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusProcessing {
		return nil, domainErrors.ErrNotCancellable
	}

	updated, _, err := u.UpdateStatus(ctx, userID, orderID, model.OrderStatusCancelled, "cancelled by customer")
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			return nil, domainErrors.ErrNotCancellable
		}
		return nil, err
	}
	return updated, nil
}

// DeleteOrder removes a cancelled order together with its items and history.
func (u *OrderUseCase) DeleteOrder(ctx context.Context, orderID int64) error {
	return u.store.WithinTransaction(ctx, func(f repository.Factory) error {
		order, err := f.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != model.OrderStatusCancelled {
			return domainErrors.ErrOrderNotDeletable
		}
		return f.Orders().Delete(ctx, orderID)
	})
}

// BulkDelete deletes the cancelled orders among ids and returns how many were removed.
func (u *OrderUseCase) BulkDelete(ctx context.Context, orderIDs []int64) (int64, error) {
	ids := uniqueIDs(orderIDs)
	if len(ids) == 0 {
		return 0, domainErrors.NewValidationError("order_ids", "must not be empty")
	}
	return u.store.Orders().DeleteCancelled(ctx, ids)
}

// AdjustmentInput lists editable order fields; nil means unchanged.
type AdjustmentInput struct {
	ShippingAddress *string
	ShippingCost    *decimal.Decimal
	TaxAmount       *decimal.Decimal
	DiscountAmount  *decimal.Decimal
	Notes           *string
	TrackingNumber  *string
}

// UpdateAdjustments edits charges and delivery details and recomputes the total.
func (u *OrderUseCase) UpdateAdjustments(ctx context.Context, orderID int64, in AdjustmentInput) (*model.Order, error) {
	verr := &domainErrors.ValidationError{}
	for field, v := range map[string]*decimal.Decimal{
		"shipping_cost":   in.ShippingCost,
		"tax_amount":      in.TaxAmount,
		"discount_amount": in.DiscountAmount,
	} {
		if v != nil && v.IsNegative() {
			verr.Add(field, "must not be negative")
		}
	}
	if in.ShippingAddress != nil && strings.TrimSpace(*in.ShippingAddress) == "" {
		verr.Add("shipping_address", "is required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	var order *model.Order
	err := u.store.WithinTransaction(ctx, func(f repository.Factory) error {
		var err error
		order, err = f.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if in.ShippingAddress != nil {
			order.ShippingAddress = strings.TrimSpace(*in.ShippingAddress)
		}
		if in.ShippingCost != nil {
			order.ShippingCost = *in.ShippingCost
		}
		if in.TaxAmount != nil {
			order.TaxAmount = *in.TaxAmount
		}
		if in.DiscountAmount != nil {
			order.DiscountAmount = *in.DiscountAmount
		}
		if in.Notes != nil {
			order.Notes = *in.Notes
		}
		if in.TrackingNumber != nil {
			order.TrackingNumber = strings.TrimSpace(*in.TrackingNumber)
		}
		if order.RecomputeTotal().IsNegative() {
			return domainErrors.NewValidationError("discount_amount", "exceeds order amount")
		}
		return f.Orders().UpdateAdjustments(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns any order by id.
func (u *OrderUseCase) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return u.store.Orders().GetByID(ctx, orderID)
}

// GetOwnOrder returns the order only when it belongs to userID.
func (u *OrderUseCase) GetOwnOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := u.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	return order, nil
}

// ListOrders returns one page of orders matching filter and the total match count.
func (u *OrderUseCase) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domainErrors.NewValidationError("status", "unknown status")
	}
	filter.Page, filter.PerPage = NormalizePage(filter.Page, filter.PerPage)
	return u.store.Orders().List(ctx, filter)
}

// ListOwnOrders lists the orders of one buyer.
func (u *OrderUseCase) ListOwnOrders(ctx context.Context, userID int64, filter model.OrderFilter) ([]model.Order, int64, error) {
	filter.UserID = &userID
	return u.ListOrders(ctx, filter)
}

// Stats returns order counts per status and delivered revenue.
func (u *OrderUseCase) Stats(ctx context.Context) (*model.OrderStats, error) {
	return u.store.Orders().Stats(ctx)
}

// History returns the status audit trail of an order.
func (u *OrderUseCase) History(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error) {
	if _, err := u.store.Orders().GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return u.store.History().ListByOrder(ctx, orderID)
}

// Export writes every order matching filter as CSV.
func (u *OrderUseCase) Export(ctx context.Context, w io.Writer, filter model.OrderFilter) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return domainErrors.NewValidationError("status", "unknown status")
	}
	filter.Page, filter.PerPage = 0, 0
	orders, _, err := u.store.Orders().List(ctx, filter)
	if err != nil {
		return err
	}
	return export.WriteOrdersCSV(w, orders)
}

// NormalizePage clamps paging parameters to the supported window.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
