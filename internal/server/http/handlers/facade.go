package handlers

import (
	"context"
	"io"

	"github.com/polkiloo/grocerymart/internal/domain/model"
	pkgAuth "github.com/polkiloo/grocerymart/internal/pkg/auth"
	"github.com/polkiloo/grocerymart/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, email, name, password string) (*model.User, string, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, string, error)
	ParseToken(token string) (*pkgAuth.Claims, error)
	Me(ctx context.Context, userID int64) (*model.User, error)
}

// CatalogFacade serves the storefront and back-office catalog.
type CatalogFacade interface {
	Products(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error)
	Product(ctx context.Context, id int64) (*model.Product, error)
	Categories(ctx context.Context) ([]model.Category, error)

	AdminProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error)
	AdminProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, in usecase.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, in usecase.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta int) (*model.Product, error)
	CreateCategory(ctx context.Context, in usecase.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, in usecase.CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// CartFacade covers the cart, buy-now and checkout.
type CartFacade interface {
	Cart(ctx context.Context, userID int64) (*usecase.CartView, error)
	AddCartItem(ctx context.Context, userID, productID int64, qty int) (*model.CartItem, error)
	UpdateCartItem(ctx context.Context, userID, itemID int64, qty int) error
	RemoveCartItem(ctx context.Context, userID, itemID int64) error
	StartBuyNow(ctx context.Context, userID, productID int64, qty int) (*usecase.CartView, error)
	CancelBuyNow(ctx context.Context, userID int64) (*usecase.CartView, error)
	Checkout(ctx context.Context, userID int64, in usecase.CheckoutInput) (*model.Order, error)
}

// OrderFacade is the buyer view of orders.
type OrderFacade interface {
	MyOrders(ctx context.Context, userID int64, filter model.OrderFilter) ([]model.Order, int64, error)
	MyOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
	CancelMyOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
}

// AdminOrderFacade is the back-office view of orders.
type AdminOrderFacade interface {
	Orders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	Order(ctx context.Context, orderID int64) (*model.Order, error)
	CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus, notes string) (*model.Order, []model.StockResult, error)
	UpdateAdjustments(ctx context.Context, orderID int64, in usecase.AdjustmentInput) (*model.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	BulkUpdateStatus(ctx context.Context, actorID int64, orderIDs []int64, status model.OrderStatus, notes string) ([]usecase.TransitionResult, error)
	BulkDelete(ctx context.Context, orderIDs []int64) (int64, error)
	ExportOrders(ctx context.Context, w io.Writer, filter model.OrderFilter) error
	OrderStats(ctx context.Context) (*model.OrderStats, error)
	OrderHistory(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error)
}

// HealthFacade reports backing service availability.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// StoreFacade aggregates the full set of operations used across handlers.
type StoreFacade interface {
	AuthFacade
	CatalogFacade
	CartFacade
	OrderFacade
	AdminOrderFacade
	HealthFacade
}
