package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

// EventPublisher delivers a single outbox event.
type EventPublisher interface {
	Publish(ctx context.Context, event model.OutboxEvent) error
}

// RelayRecorder counts relay outcomes.
type RelayRecorder interface {
	OutboxEvent(result string)
}

const (
	resultSent   = "sent"
	resultFailed = "failed"
)

// OutboxRelay polls the outbox and publishes claimed events with a pool of workers.
// Delivery is at least once: an event is marked sent only after the publisher accepted it.
type OutboxRelay struct {
	outbox       repository.OutboxRepository
	publisher    EventPublisher
	recorder     RelayRecorder
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs    chan model.OutboxEvent
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

// NewOutboxRelay constructs the relay worker pool.
func NewOutboxRelay(outbox repository.OutboxRepository, publisher EventPublisher, recorder RelayRecorder, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *OutboxRelay {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &OutboxRelay{
		outbox:       outbox,
		publisher:    publisher,
		recorder:     recorder,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.OutboxEvent, batchSize*workers),
	}
}

// Start launches background publishing. Calling Start twice has no effect.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for workers to finish and releases events that were claimed but not published.
func (r *OutboxRelay) Stop() {
	r.mu.Lock()
	started := r.started
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	if !started {
		return
	}
	r.wg.Wait()

	for event := range r.jobs {
		r.release(context.Background(), event)
	}
}

func (r *OutboxRelay) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.claimAndDispatch(ctx)
		}
	}
}

func (r *OutboxRelay) claimAndDispatch(ctx context.Context) {
	events, err := r.outbox.ClaimBatch(ctx, r.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("claim outbox batch failed", slog.String("error", err.Error()))
		}
		return
	}
	for i, event := range events {
		select {
		case <-ctx.Done():
			for _, rest := range events[i:] {
				r.release(context.Background(), rest)
			}
			return
		case r.jobs <- event:
		}
	}
}

func (r *OutboxRelay) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.jobs:
			if !ok {
				return
			}
			r.handleEvent(ctx, event)
		}
	}
}

func (r *OutboxRelay) handleEvent(ctx context.Context, event model.OutboxEvent) {
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("publish outbox event failed",
			slog.String("event_id", event.EventID),
			slog.String("topic", event.Topic),
			slog.String("error", err.Error()),
		)
		r.recorder.OutboxEvent(resultFailed)
		r.release(context.WithoutCancel(ctx), event)
		return
	}

	r.recorder.OutboxEvent(resultSent)
	if err := r.outbox.MarkSent(context.WithoutCancel(ctx), event.ID); err != nil {
		r.logger.Error("mark outbox event sent failed",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *OutboxRelay) release(ctx context.Context, event model.OutboxEvent) {
	if err := r.outbox.Release(ctx, event.ID); err != nil {
		r.logger.Error("release outbox event failed",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
	}
}
