package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload written to the outbox for order changes.
type OrderEvent struct {
	EventID     string            `json:"event_id"`
	Type        string            `json:"type"`
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      int64             `json:"user_id"`
	Status      model.OrderStatus `json:"status"`
	OldStatus   model.OrderStatus `json:"old_status,omitempty"`
	Total       decimal.Decimal   `json:"total_amount"`
	ActorID     int64             `json:"actor_id,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

func (u *OrderUseCase) enqueueEvent(ctx context.Context, outbox repository.OutboxRepository, eventType string, order *model.Order, old model.OrderStatus, actorID int64) error {
	event := OrderEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		UserID:      order.UserID,
		Status:      order.Status,
		OldStatus:   old,
		Total:       order.TotalAmount,
		ActorID:     actorID,
		OccurredAt:  u.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return outbox.Insert(ctx, &model.OutboxEvent{
		EventID: event.EventID,
		Topic:   u.opts.EventsTopic,
		Key:     strconv.FormatInt(order.ID, 10),
		Payload: payload,
	})
}
