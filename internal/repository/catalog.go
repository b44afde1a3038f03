package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	queryListCategories = `SELECT id, name FROM categories ORDER BY name`
	queryGetCategory    = `SELECT id, name FROM categories WHERE id = $1`
	queryCreateCategory = `INSERT INTO categories (name) VALUES ($1) RETURNING id`
	queryRenameCategory = `UPDATE categories SET name = $1 WHERE id = $2`
	queryDeleteCategory = `DELETE FROM categories WHERE id = $1`

	queryListItems      = `SELECT id, name, category_id, price_per_unit, stock, updated_at FROM items WHERE category_id = $1 ORDER BY name`
	queryListOutOfStock = `SELECT id, name, category_id, price_per_unit, stock, updated_at FROM items WHERE stock = 0 ORDER BY name`
	queryCreateItem     = `INSERT INTO items (name, category_id, price_per_unit, stock) VALUES ($1, $2, $3, $4) RETURNING id, updated_at`
	queryUpdateItem     = `UPDATE items SET name = $1, price_per_unit = $2, updated_at = now() WHERE id = $3 RETURNING category_id, stock, updated_at`
	queryDeleteItem     = `DELETE FROM items WHERE id = $1`
)

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, queryListCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx, queryGetCategory, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	c := domain.Category{Name: name}
	err := r.db.QueryRowContext(ctx, queryCreateCategory, name).Scan(&c.ID)
	if pqCode(err) == pqUniqueViolation {
		return nil, domain.Invalid("category %q already exists", name)
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (r *Repository) RenameCategory(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, queryRenameCategory, name, id)
	if pqCode(err) == pqUniqueViolation {
		return domain.Invalid("category %q already exists", name)
	}
	if err != nil {
		return fmt.Errorf("rename category %d: %w", id, err)
	}
	return expectOneRow(res, domain.ErrCategoryNotFound)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, queryDeleteCategory, id)
	if pqCode(err) == pqForeignKeyViolation {
		return domain.Invalid("category still has items")
	}
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return expectOneRow(res, domain.ErrCategoryNotFound)
}

func (r *Repository) ListItems(ctx context.Context, categoryID int64) ([]domain.Item, error) {
	if _, err := r.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return r.queryItems(ctx, queryListItems, categoryID)
}

// ListOutOfStock returns items whose stock reached zero.
func (r *Repository) ListOutOfStock(ctx context.Context) ([]domain.Item, error) {
	return r.queryItems(ctx, queryListOutOfStock)
}

func (r *Repository) queryItems(ctx context.Context, query string, args ...any) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *Repository) CreateItem(ctx context.Context, it domain.Item) (*domain.Item, error) {
	err := r.db.QueryRowContext(ctx, queryCreateItem, it.Name, it.CategoryID, it.PricePerUnit, it.Stock).
		Scan(&it.ID, &it.UpdatedAt)
	switch pqCode(err) {
	case pqForeignKeyViolation:
		return nil, domain.ErrCategoryNotFound
	case pqNumericOverflow:
		return nil, domain.Invalid("price or stock is out of range")
	}
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &it, nil
}

// UpdateItem changes name and price. Stock only moves through reserve, release and restock.
func (r *Repository) UpdateItem(ctx context.Context, it domain.Item) (*domain.Item, error) {
	err := r.db.QueryRowContext(ctx, queryUpdateItem, it.Name, it.PricePerUnit, it.ID).
		Scan(&it.CategoryID, &it.Stock, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if pqCode(err) == pqNumericOverflow {
		return nil, domain.Invalid("price is out of range")
	}
	if err != nil {
		return nil, fmt.Errorf("update item %d: %w", it.ID, err)
	}
	return &it, nil
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, queryDeleteItem, id)
	if pqCode(err) == pqForeignKeyViolation {
		return domain.Invalid("item has open orders")
	}
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	return expectOneRow(res, domain.ErrItemNotFound)
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
