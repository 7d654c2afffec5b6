package model

import (
	"encoding/json"
	"time"
)

// StatusHistoryEntry is an append-only audit record of an order status change.
type StatusHistoryEntry struct {
	ID        int64
	OrderID   int64
	OldStatus OrderStatus
	NewStatus OrderStatus
	ActorID   int64
	Notes     string
	CreatedAt time.Time
}

// OutboxEvent is a domain event stored alongside the change that produced it.
type OutboxEvent struct {
	ID        int64
	EventID   string
	Topic     string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}
