package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

// CartView is the cart as shown to the buyer.
type CartView struct {
	Items      []model.CartItem
	Subtotal   decimal.Decimal
	BuyNowMode bool
}

// CheckoutInput carries checkout form fields. Empty CartItemIDs means the whole cart.
type CheckoutInput struct {
	ShippingAddress string
	PaymentMethod   string
	Notes           string
	CartItemIDs     []int64
}

// CartUseCase manages the buyer cart, the buy-now flow and checkout.
type CartUseCase struct {
	store  repository.Store
	buyNow repository.BuyNowStore
	orders *OrderUseCase
	logger *slog.Logger
	now    func() time.Time
}

// NewCartUseCase constructs CartUseCase.
func NewCartUseCase(store repository.Store, buyNow repository.BuyNowStore, orders *OrderUseCase, logger *slog.Logger) *CartUseCase {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &CartUseCase{store: store, buyNow: buyNow, orders: orders, logger: logger, now: time.Now}
}

// View returns cart lines, their subtotal and whether a buy-now session is active.
func (u *CartUseCase) View(ctx context.Context, userID int64) (*CartView, error) {
	items, err := u.store.Carts().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	session, err := u.buyNow.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: items, Subtotal: decimal.Zero, BuyNowMode: session != nil && session.BuyNowMode}
	for _, item := range items {
		view.Subtotal = view.Subtotal.Add(item.LineTotal())
	}
	return view, nil
}

// AddItem puts qty units of a product in the cart, merging with an existing line.
func (u *CartUseCase) AddItem(ctx context.Context, userID, productID int64, qty int) (*model.CartItem, error) {
	if qty <= 0 {
		return nil, domainErrors.NewValidationError("quantity", "must be positive")
	}
	product, err := u.availableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	items, err := u.store.Carts().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	inCart := 0
	for _, item := range items {
		if item.ProductID == productID {
			inCart = item.Quantity
		}
	}
	if inCart+qty > product.Stock {
		return nil, &domainErrors.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   inCart + qty,
		}
	}
	return u.store.Carts().Add(ctx, userID, productID, qty)
}

// UpdateItem sets the quantity of one cart line.
func (u *CartUseCase) UpdateItem(ctx context.Context, userID, itemID int64, qty int) error {
	if qty <= 0 {
		return domainErrors.NewValidationError("quantity", "must be positive")
	}
	items, err := u.store.Carts().GetByIDs(ctx, userID, []int64{itemID})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return domainErrors.ErrNotFound
	}
	if qty > items[0].Stock {
		return &domainErrors.InsufficientStockError{
			ProductID:   items[0].ProductID,
			ProductName: items[0].ProductName,
			Available:   items[0].Stock,
			Requested:   qty,
		}
	}
	return u.store.Carts().UpdateQuantity(ctx, userID, itemID, qty)
}

// RemoveItem deletes one cart line.
func (u *CartUseCase) RemoveItem(ctx context.Context, userID, itemID int64) error {
	return u.store.Carts().Remove(ctx, userID, itemID)
}

// StartBuyNow stashes the current cart and replaces it with a single product.
// Starting again while a session is active keeps the original stash.
func (u *CartUseCase) StartBuyNow(ctx context.Context, userID, productID int64, qty int) (*CartView, error) {
	if qty <= 0 {
		return nil, domainErrors.NewValidationError("quantity", "must be positive")
	}
	product, err := u.availableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, &domainErrors.InsufficientStockError{ProductID: product.ID, ProductName: product.Name, Available: product.Stock, Requested: qty}
	}

	session, err := u.buyNow.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	created := false
	if session == nil {
		items, err := u.store.Carts().ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		session = &model.BuyNowSession{BuyNowMode: true, StartedAt: u.now().UTC()}
		for _, item := range items {
			session.SavedCartItems = append(session.SavedCartItems, model.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := u.buyNow.Save(ctx, userID, session); err != nil {
			return nil, fmt.Errorf("stash cart: %w", err)
		}
		created = true
	}

	err = u.store.WithinTransaction(ctx, func(f repository.Factory) error {
		if err := f.Carts().Clear(ctx, userID); err != nil {
			return err
		}
		_, err := f.Carts().Add(ctx, userID, productID, qty)
		return err
	})
	if err != nil {
		if created {
			if derr := u.buyNow.Delete(ctx, userID); derr != nil {
				u.logger.Error("drop buy-now stash", slog.Int64("user_id", userID), slog.Any("error", derr))
			}
		}
		return nil, err
	}
	return u.View(ctx, userID)
}

// CancelBuyNow puts the stashed cart back. Without an active session it is a no-op.
func (u *CartUseCase) CancelBuyNow(ctx context.Context, userID int64) (*CartView, error) {
	if err := u.restoreStash(ctx, userID); err != nil {
		return nil, err
	}
	return u.View(ctx, userID)
}

// Checkout turns the cart, or the selected lines of it, into an order.
func (u *CartUseCase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (*model.Order, error) {
	var (
		items []model.CartItem
		err   error
	)
	if len(in.CartItemIDs) > 0 {
		items, err = u.store.Carts().GetByIDs(ctx, userID, uniqueIDs(in.CartItemIDs))
	} else {
		items, err = u.store.Carts().ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}

	input := CreateOrderInput{
		UserID:          userID,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		Notes:           in.Notes,
	}
	for _, item := range items {
		input.Items = append(input.Items, OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity, CartItemID: item.ID})
	}

	order, err := u.orders.CreateOrder(ctx, input, CheckoutPath)
	if err != nil {
		return nil, err
	}

	if err := u.restoreStash(ctx, userID); err != nil {
		u.logger.Error("restore cart after checkout", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return order, nil
}

func (u *CartUseCase) restoreStash(ctx context.Context, userID int64) error {
	session, err := u.buyNow.Get(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	err = u.store.WithinTransaction(ctx, func(f repository.Factory) error {
		if err := f.Carts().Clear(ctx, userID); err != nil {
			return err
		}
		for _, line := range session.SavedCartItems {
			product, err := f.Products().GetByID(ctx, line.ProductID)
			if errors.Is(err, domainErrors.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !product.IsActive {
				continue
			}
			if _, err := f.Carts().Add(ctx, userID, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore stashed cart: %w", err)
	}
	return u.buyNow.Delete(ctx, userID)
}

func (u *CartUseCase) availableProduct(ctx context.Context, productID int64) (*model.Product, error) {
	product, err := u.store.Products().GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.NewValidationError("product_id", "unknown product")
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, domainErrors.NewValidationError("product_id", "product is not available")
	}
	return product, nil
}
