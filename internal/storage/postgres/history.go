package postgres

import (
	"context"
	"sort"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

type historyRepository struct {
	db querier
}

type outboxRepository struct {
	db querier
}

func (r *historyRepository) Append(ctx context.Context, entry *model.StatusHistoryEntry) error {
	const query = `INSERT INTO order_status_history (order_id, old_status, new_status, actor_id, notes)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, entry.OrderID, entry.OldStatus, entry.NewStatus, entry.ActorID, entry.Notes).
		Scan(&entry.ID, &entry.CreatedAt)
	return mapError(err)
}

func (r *historyRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error) {
	const query = `SELECT id, order_id, old_status, new_status, actor_id, notes, created_at
                   FROM order_status_history WHERE order_id=$1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StatusHistoryEntry
	for rows.Next() {
		var e model.StatusHistoryEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.OldStatus, &e.NewStatus, &e.ActorID, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- OutboxRepository implementation ---

func (r *outboxRepository) Insert(ctx context.Context, event *model.OutboxEvent) error {
	const query = `INSERT INTO outbox (event_id, topic, key, payload) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, event.EventID, event.Topic, event.Key, []byte(event.Payload)).Scan(&event.ID, &event.CreatedAt)
	return mapError(err)
}

// ClaimBatch leases up to limit unsent events. Rows locked by another relay are skipped and
// a claim older than a minute is considered abandoned.
func (r *outboxRepository) ClaimBatch(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	const query = `UPDATE outbox SET claimed_at = NOW()
                   WHERE id IN (
                       SELECT id FROM outbox
                       WHERE sent_at IS NULL AND (claimed_at IS NULL OR claimed_at < NOW() - INTERVAL '1 minute')
                       ORDER BY id
                       LIMIT $1
                       FOR UPDATE SKIP LOCKED
                   )
                   RETURNING id, event_id, topic, key, payload, created_at`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.OutboxEvent
	for rows.Next() {
		var (
			e       model.OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.Topic, &e.Key, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id=$1`, id)
	return err
}

func (r *outboxRepository) Release(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox SET claimed_at = NULL WHERE id=$1 AND sent_at IS NULL`, id)
	return err
}
