package postgres

import (
	"context"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
)

type cartRepository struct {
	db querier
}

const cartSelect = `SELECT c.id, c.user_id, c.product_id, p.name, p.price, p.stock, c.quantity, c.created_at
                    FROM cart_items c JOIN products p ON p.id = c.product_id`

func (r *cartRepository) ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error) {
	return r.list(ctx, cartSelect+` WHERE c.user_id=$1 ORDER BY c.created_at, c.id`, userID)
}

func (r *cartRepository) GetByIDs(ctx context.Context, userID int64, ids []int64) ([]model.CartItem, error) {
	return r.list(ctx, cartSelect+` WHERE c.user_id=$1 AND c.id = ANY($2) ORDER BY c.id`, userID, ids)
}

func (r *cartRepository) list(ctx context.Context, query string, args ...any) ([]model.CartItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CartItem
	for rows.Next() {
		var c model.CartItem
		if err := rows.Scan(&c.ID, &c.UserID, &c.ProductID, &c.ProductName, &c.UnitPrice, &c.Stock, &c.Quantity, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Add inserts a cart line or increases the quantity of an existing one for the same product.
func (r *cartRepository) Add(ctx context.Context, userID, productID int64, qty int) (*model.CartItem, error) {
	const query = `INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3)
                   ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
                   RETURNING id, quantity, created_at`
	item := model.CartItem{UserID: userID, ProductID: productID}
	if err := r.db.QueryRow(ctx, query, userID, productID, qty).Scan(&item.ID, &item.Quantity, &item.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &item, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, itemID int64, qty int) error {
	tag, err := r.db.Exec(ctx, `UPDATE cart_items SET quantity=$1 WHERE id=$2 AND user_id=$3`, qty, itemID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) Remove(ctx context.Context, userID, itemID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, itemID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND id = ANY($2)`, userID, ids)
	return err
}

func (r *cartRepository) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
