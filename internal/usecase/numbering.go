package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

// NumberStrategy generates a human readable order number inside the creating transaction.
type NumberStrategy interface {
	Next(ctx context.Context, orders repository.OrderRepository, userID int64, now time.Time) (string, error)
}

// DailySequenceNumber yields ORD-YYYYMMDD-0001, counting per calendar day.
type DailySequenceNumber struct{}

func (DailySequenceNumber) Next(ctx context.Context, orders repository.OrderRepository, _ int64, now time.Time) (string, error) {
	prefix := "ORD-" + now.Format("20060102") + "-"
	seq, err := orders.NextSequence(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// TimestampUserNumber yields ORD-<unix seconds>-<user id>.
type TimestampUserNumber struct{}

func (TimestampUserNumber) Next(_ context.Context, _ repository.OrderRepository, userID int64, now time.Time) (string, error) {
	return fmt.Sprintf("ORD-%d-%d", now.Unix(), userID), nil
}

// CreationPath is the policy applied when an order is created.
type CreationPath struct {
	Name string
	// ReserveOnCreate decrements stock for every item inside the creating transaction.
	ReserveOnCreate bool
	// ApplyDefaultCharges replaces input adjustments with configured shipping and tax.
	ApplyDefaultCharges bool
	Number              NumberStrategy
}

var (
	CheckoutPath = CreationPath{Name: "checkout", ReserveOnCreate: true, ApplyDefaultCharges: true, Number: TimestampUserNumber{}}
	AdminPath    = CreationPath{Name: "admin", Number: DailySequenceNumber{}}
)
