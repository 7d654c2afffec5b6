package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/grocerymart/internal/config"
	"github.com/polkiloo/grocerymart/internal/metrics"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	NewCatalogUseCase,
	NewCartUseCase,
	NewOrderUseCase,
	newRecorder,
	newOrderOptions,
)

func newOrderOptions(cfg *config.Config) OrderOptions {
	return OrderOptions{
		ShippingCost: cfg.ShippingCost,
		TaxRate:      cfg.TaxRate,
		EventsTopic:  cfg.OrderEventsTopic,
	}
}

func newRecorder(m *metrics.Metrics) Recorder {
	return m
}
