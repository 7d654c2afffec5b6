package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/polkiloo/grocerymart/internal/config"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/metrics"
	"github.com/polkiloo/grocerymart/internal/server/http/handlers"
	"github.com/polkiloo/grocerymart/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StoreFacade, logger *slog.Logger, m *metrics.Metrics, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics(m))
	if len(cfg.CORSAllowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Content-Encoding", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	// Decompression is its own middleware: its handler calls Next itself.
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressOnly(), gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	catalogHandler := handlers.NewCatalogHandler(facade)
	cartHandler := handlers.NewCartHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	adminOrders := handlers.NewAdminOrderHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	api := engine.Group("/api")
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:id", catalogHandler.GetProduct)
	api.GET("/categories", catalogHandler.ListCategories)

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	buyer := api.Group("")
	buyer.Use(middleware.AuthRequired(facade))
	buyer.GET("/user/me", authHandler.Me)
	buyer.GET("/cart", cartHandler.View)
	buyer.POST("/cart/items", cartHandler.AddItem)
	buyer.PATCH("/cart/items/:id", cartHandler.UpdateItem)
	buyer.DELETE("/cart/items/:id", cartHandler.RemoveItem)
	buyer.POST("/cart/buy-now", cartHandler.StartBuyNow)
	buyer.DELETE("/cart/buy-now", cartHandler.CancelBuyNow)
	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.CheckoutRateLimit), cfg.CheckoutRateBurst)
	buyer.POST("/checkout", middleware.RateLimit(limiter), cartHandler.Checkout)
	buyer.GET("/orders", orderHandler.List)
	buyer.GET("/orders/:id", orderHandler.Get)
	buyer.PATCH("/orders/:id/cancel", orderHandler.Cancel)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(facade), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/orders", adminOrders.List)
	admin.POST("/orders", adminOrders.Create)
	admin.GET("/orders/stats", adminOrders.Stats)
	admin.GET("/orders/export", adminOrders.Export)
	admin.POST("/orders/bulk-action", adminOrders.BulkAction)
	admin.GET("/orders/:id", adminOrders.Get)
	admin.PATCH("/orders/:id", adminOrders.Update)
	admin.DELETE("/orders/:id", adminOrders.Delete)
	admin.GET("/orders/:id/history", adminOrders.History)

	admin.GET("/products", catalogHandler.AdminListProducts)
	admin.POST("/products", catalogHandler.CreateProduct)
	admin.GET("/products/:id", catalogHandler.AdminGetProduct)
	admin.PUT("/products/:id", catalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", catalogHandler.DeleteProduct)
	admin.PATCH("/products/:id/stock", catalogHandler.AdjustStock)
	admin.POST("/categories", catalogHandler.CreateCategory)
	admin.PUT("/categories/:id", catalogHandler.UpdateCategory)
	admin.DELETE("/categories/:id", catalogHandler.DeleteCategory)

	return engine
}
