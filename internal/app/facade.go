package app

import (
	"context"
	"fmt"
	"io"

	"github.com/polkiloo/grocerymart/internal/domain/model"
	pkgAuth "github.com/polkiloo/grocerymart/internal/pkg/auth"
	"github.com/polkiloo/grocerymart/internal/usecase"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StoreFacade is the single entry point handlers use to reach the use cases.
type StoreFacade struct {
	auth    *usecase.AuthUseCase
	catalog *usecase.CatalogUseCase
	cart    *usecase.CartUseCase
	orders  *usecase.OrderUseCase
	checks  map[string]HealthChecker
}

func NewStoreFacade(auth *usecase.AuthUseCase, catalog *usecase.CatalogUseCase, cart *usecase.CartUseCase, orders *usecase.OrderUseCase, checks map[string]HealthChecker) *StoreFacade {
	return &StoreFacade{auth: auth, catalog: catalog, cart: cart, orders: orders, checks: checks}
}

func (f *StoreFacade) Register(ctx context.Context, email, name, password string) (*model.User, string, error) {
	return f.auth.Register(ctx, email, name, password)
}

func (f *StoreFacade) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	return f.auth.Authenticate(ctx, email, password)
}

func (f *StoreFacade) ParseToken(token string) (*pkgAuth.Claims, error) {
	return f.auth.ParseToken(token)
}

func (f *StoreFacade) Me(ctx context.Context, userID int64) (*model.User, error) {
	return f.auth.GetByID(ctx, userID)
}

// --- catalog ---

func (f *StoreFacade) Products(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	return f.catalog.BrowseProducts(ctx, filter)
}

func (f *StoreFacade) Product(ctx context.Context, id int64) (*model.Product, error) {
	return f.catalog.GetProduct(ctx, id, false)
}

func (f *StoreFacade) Categories(ctx context.Context) ([]model.Category, error) {
	return f.catalog.ListCategories(ctx)
}

func (f *StoreFacade) AdminProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	return f.catalog.ListProducts(ctx, filter)
}

func (f *StoreFacade) AdminProduct(ctx context.Context, id int64) (*model.Product, error) {
	return f.catalog.GetProduct(ctx, id, true)
}

func (f *StoreFacade) CreateProduct(ctx context.Context, in usecase.ProductInput) (*model.Product, error) {
	return f.catalog.CreateProduct(ctx, in)
}

func (f *StoreFacade) UpdateProduct(ctx context.Context, id int64, in usecase.ProductInput) (*model.Product, error) {
	return f.catalog.UpdateProduct(ctx, id, in)
}

func (f *StoreFacade) DeleteProduct(ctx context.Context, id int64) error {
	return f.catalog.DeleteProduct(ctx, id)
}

func (f *StoreFacade) AdjustStock(ctx context.Context, id int64, delta int) (*model.Product, error) {
	return f.catalog.AdjustStock(ctx, id, delta)
}

func (f *StoreFacade) CreateCategory(ctx context.Context, in usecase.CategoryInput) (*model.Category, error) {
	return f.catalog.CreateCategory(ctx, in)
}

func (f *StoreFacade) UpdateCategory(ctx context.Context, id int64, in usecase.CategoryInput) (*model.Category, error) {
	return f.catalog.UpdateCategory(ctx, id, in)
}

func (f *StoreFacade) DeleteCategory(ctx context.Context, id int64) error {
	return f.catalog.DeleteCategory(ctx, id)
}

// --- cart ---

func (f *StoreFacade) Cart(ctx context.Context, userID int64) (*usecase.CartView, error) {
	return f.cart.View(ctx, userID)
}

func (f *StoreFacade) AddCartItem(ctx context.Context, userID, productID int64, qty int) (*model.CartItem, error) {
	return f.cart.AddItem(ctx, userID, productID, qty)
}

func (f *StoreFacade) UpdateCartItem(ctx context.Context, userID, itemID int64, qty int) error {
	return f.cart.UpdateItem(ctx, userID, itemID, qty)
}

func (f *StoreFacade) RemoveCartItem(ctx context.Context, userID, itemID int64) error {
	return f.cart.RemoveItem(ctx, userID, itemID)
}

func (f *StoreFacade) StartBuyNow(ctx context.Context, userID, productID int64, qty int) (*usecase.CartView, error) {
	return f.cart.StartBuyNow(ctx, userID, productID, qty)
}

func (f *StoreFacade) CancelBuyNow(ctx context.Context, userID int64) (*usecase.CartView, error) {
	return f.cart.CancelBuyNow(ctx, userID)
}

func (f *StoreFacade) Checkout(ctx context.Context, userID int64, in usecase.CheckoutInput) (*model.Order, error) {
	return f.cart.Checkout(ctx, userID, in)
}

// --- buyer orders ---

func (f *StoreFacade) MyOrders(ctx context.Context, userID int64, filter model.OrderFilter) ([]model.Order, int64, error) {
	return f.orders.ListOwnOrders(ctx, userID, filter)
}

func (f *StoreFacade) MyOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.orders.GetOwnOrder(ctx, userID, orderID)
}

func (f *StoreFacade) CancelMyOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.orders.CancelByBuyer(ctx, userID, orderID)
}

// --- admin orders ---

func (f *StoreFacade) Orders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	return f.orders.ListOrders(ctx, filter)
}

func (f *StoreFacade) Order(ctx context.Context, orderID int64) (*model.Order, error) {
	return f.orders.GetOrder(ctx, orderID)
}

// CreateOrder places an order on behalf of a customer from the back office.
func (f *StoreFacade) CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*model.Order, error) {
	return f.orders.CreateOrder(ctx, in, usecase.AdminPath)
}

func (f *StoreFacade) UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus, notes string) (*model.Order, []model.StockResult, error) {
	return f.orders.UpdateStatus(ctx, actorID, orderID, status, notes)
}

func (f *StoreFacade) UpdateAdjustments(ctx context.Context, orderID int64, in usecase.AdjustmentInput) (*model.Order, error) {
	return f.orders.UpdateAdjustments(ctx, orderID, in)
}

func (f *StoreFacade) DeleteOrder(ctx context.Context, orderID int64) error {
	return f.orders.DeleteOrder(ctx, orderID)
}

func (f *StoreFacade) BulkUpdateStatus(ctx context.Context, actorID int64, orderIDs []int64, status model.OrderStatus, notes string) ([]usecase.TransitionResult, error) {
	return f.orders.BulkUpdateStatus(ctx, actorID, orderIDs, status, notes)
}

func (f *StoreFacade) BulkDelete(ctx context.Context, orderIDs []int64) (int64, error) {
	return f.orders.BulkDelete(ctx, orderIDs)
}

func (f *StoreFacade) ExportOrders(ctx context.Context, w io.Writer, filter model.OrderFilter) error {
	return f.orders.Export(ctx, w, filter)
}

func (f *StoreFacade) OrderStats(ctx context.Context) (*model.OrderStats, error) {
	return f.orders.Stats(ctx)
}

func (f *StoreFacade) OrderHistory(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error) {
	return f.orders.History(ctx, orderID)
}

// Health runs every registered check and reports the first failure by name.
func (f *StoreFacade) Health(ctx context.Context) error {
	for name, check := range f.checks {
		if err := check.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
