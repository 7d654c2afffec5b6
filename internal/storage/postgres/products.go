package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
)

type productRepository struct {
	db querier
}

type categoryRepository struct {
	db querier
}

const productColumns = `id, category_id, name, description, price, stock, is_active, created_at, updated_at`

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	const query = `INSERT INTO products (category_id, name, description, price, stock, is_active)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, product.CategoryID, product.Name, product.Description, product.Price, product.Stock, product.IsActive).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	return mapError(err)
}

// Update rewrites descriptive fields; stock is owned by the ledger methods.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	const query = `UPDATE products SET category_id=$1, name=$2, description=$3, price=$4, is_active=$5, updated_at=NOW()
                   WHERE id=$6
                   RETURNING stock, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, product.CategoryID, product.Name, product.Description, product.Price, product.IsActive, product.ID).
		Scan(&product.Stock, &product.CreatedAt, &product.UpdatedAt)
	return mapError(err)
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domainErrors.ErrProductInUse
		}
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", likePattern(s))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if filter.InStock {
		conds = append(conds, "stock > 0")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY name, id`
	if filter.PerPage > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PerPage, filter.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// LockForUpdate row-locks products in id order so concurrent checkouts cannot deadlock.
func (r *productRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]model.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	const query = `UPDATE products SET stock = stock - $1, updated_at=NOW() WHERE id=$2 AND stock >= $1`
	tag, err := r.db.Exec(ctx, query, qty, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *productRepository) IncrementStock(ctx context.Context, id int64, qty int) error {
	const query = `UPDATE products SET stock = stock + $1, updated_at=NOW() WHERE id=$2`
	tag, err := r.db.Exec(ctx, query, qty, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *productRepository) AdjustStock(ctx context.Context, id int64, delta int) (*model.Product, error) {
	const query = `UPDATE products SET stock = stock + $1, updated_at=NOW()
                   WHERE id=$2 AND stock + $1 >= 0
                   RETURNING ` + productColumns
	p, err := scanProduct(r.db.QueryRow(ctx, query, delta, id))
	if err == nil {
		return p, nil
	}
	if !errors.Is(mapError(err), domainErrors.ErrNotFound) {
		return nil, err
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &domainErrors.InsufficientStockError{
		ProductID:   current.ID,
		ProductName: current.Name,
		Available:   current.Stock,
		Requested:   -delta,
	}
}

// --- CategoryRepository implementation ---

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	const query = `INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, category.Name, category.Slug, category.Description).Scan(&category.ID, &category.CreatedAt)
	return mapError(err)
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	const query = `UPDATE categories SET name=$1, slug=$2, description=$3 WHERE id=$4 RETURNING created_at`
	err := r.db.QueryRow(ctx, query, category.Name, category.Slug, category.Description, category.ID).Scan(&category.CreatedAt)
	return mapError(err)
}

func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	const query = `SELECT id, name, slug, description, created_at FROM categories WHERE id=$1`
	var c model.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	const query = `SELECT id, name, slug, description, created_at FROM categories ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
