package usecase

import "github.com/polkiloo/grocerymart/internal/domain/model"

// Recorder receives business counters; *metrics.Metrics implements it.
type Recorder interface {
	OrderCreated(path string)
	StatusTransition(from, to model.OrderStatus)
	StockDecrementSkipped()
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated(string) {}

func (nopRecorder) StatusTransition(model.OrderStatus, model.OrderStatus) {}

func (nopRecorder) StockDecrementSkipped() {}
