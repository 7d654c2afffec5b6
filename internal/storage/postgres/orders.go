package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
)

type orderRepository struct {
	db querier
}

const orderColumns = `o.id, o.order_number, o.user_id, u.name, u.email, o.status, o.total_amount,
        o.shipping_address, o.payment_method, o.notes, o.shipping_cost, o.tax_amount, o.discount_amount,
        o.tracking_number, o.shipped_at, o.delivered_at, o.created_at, o.updated_at`

const orderFrom = ` FROM orders o JOIN users u ON u.id = o.user_id`

const itemColumns = `id, order_id, product_id, product_name, quantity, price, reserved`

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.Status, &o.TotalAmount,
		&o.ShippingAddress, &o.PaymentMethod, &o.Notes, &o.ShippingCost, &o.TaxAmount, &o.DiscountAmount,
		&o.TrackingNumber, &o.ShippedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the order header and all of its items.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	const insertOrder = `INSERT INTO orders (order_number, user_id, status, total_amount, shipping_address, payment_method,
                         notes, shipping_cost, tax_amount, discount_amount)
                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                         RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, insertOrder,
		order.Number, order.UserID, order.Status, order.TotalAmount, order.ShippingAddress, order.PaymentMethod,
		order.Notes, order.ShippingCost, order.TaxAmount, order.DiscountAmount,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return mapError(err)
	}

	const insertItem = `INSERT INTO order_items (order_id, product_id, product_name, quantity, price, reserved)
                        VALUES ($1, $2, $3, $4, $5, $6)
                        RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := r.db.QueryRow(ctx, insertItem, order.ID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Reserved).
			Scan(&item.ID); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id=$1`, id)
}

// GetForUpdate loads the order and holds its row lock until the transaction ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id=$1 FOR UPDATE OF o`, id)
}

func (r *orderRepository) get(ctx context.Context, query string, id int64) (*model.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	items, err := r.loadItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	const query = `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY id`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Reserved); err != nil {
			return nil, err
		}
		result[it.OrderID] = append(result[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("o.user_id = $%d", *filter.UserID)
	}
	if filter.Status != "" {
		add("o.status = $%d", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add("(o.order_number ILIKE $%[1]d OR u.name ILIKE $%[1]d OR u.email ILIKE $%[1]d)", likePattern(s))
	}
	if filter.From != nil {
		add("o.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("o.created_at < $%d", *filter.To)
	}
	if len(filter.OrderIDs) > 0 {
		add("o.id = ANY($%d)", filter.OrderIDs)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+orderFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + orderFrom + where + ` ORDER BY o.created_at DESC, o.id DESC`
	if filter.PerPage > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PerPage, filter.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		orders []model.Order
		ids    []int64
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if len(ids) == 0 {
		return orders, total, nil
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order) error {
	const query = `UPDATE orders SET status=$1, shipped_at=$2, delivered_at=$3, total_amount=$4, updated_at=NOW()
                   WHERE id=$5
                   RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, order.Status, order.ShippedAt, order.DeliveredAt, order.TotalAmount, order.ID).
		Scan(&order.UpdatedAt)
	return mapError(err)
}

func (r *orderRepository) UpdateAdjustments(ctx context.Context, order *model.Order) error {
	const query = `UPDATE orders SET shipping_address=$1, shipping_cost=$2, tax_amount=$3, discount_amount=$4,
                   notes=$5, tracking_number=$6, total_amount=$7, updated_at=NOW()
                   WHERE id=$8
                   RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		order.ShippingAddress, order.ShippingCost, order.TaxAmount, order.DiscountAmount,
		order.Notes, order.TrackingNumber, order.TotalAmount, order.ID,
	).Scan(&order.UpdatedAt)
	return mapError(err)
}

func (r *orderRepository) SetItemsReserved(ctx context.Context, itemIDs []int64, reserved bool) error {
	if len(itemIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE order_items SET reserved=$1 WHERE id = ANY($2)`, reserved, itemIDs)
	return err
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// DeleteCancelled removes the listed orders that are cancelled and skips the rest.
func (r *orderRepository) DeleteCancelled(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = ANY($1) AND status=$2`, ids, model.OrderStatusCancelled)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) NextSequence(ctx context.Context, prefix string) (int, error) {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prefix); err != nil {
		return 0, err
	}
	const query = `SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM char_length($1) + 1) AS INTEGER)), 0) + 1
                   FROM orders
                   WHERE order_number LIKE $1 || '%'
                     AND SUBSTRING(order_number FROM char_length($1) + 1) ~ '^[0-9]+$'`
	var next int
	if err := r.db.QueryRow(ctx, query, prefix).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *orderRepository) Stats(ctx context.Context) (*model.OrderStats, error) {
	const query = `SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders GROUP BY status`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &model.OrderStats{ByStatus: make(map[model.OrderStatus]int64), Revenue: decimal.Zero}
	for rows.Next() {
		var (
			status model.OrderStatus
			count  int64
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
		if status == model.OrderStatusDelivered {
			stats.Revenue = sum
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
