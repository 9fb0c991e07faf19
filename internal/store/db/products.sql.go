package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, category, price, quantity, created_at, updated_at`

const createProduct = `INSERT INTO products (id, name, category, price, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + productColumns

func (q *Queries) CreateProduct(ctx context.Context, id uuid.UUID, arg ProductParams) (Product, error) {
	rows, err := q.db.Query(ctx, createProduct, id, arg.Name, arg.Category, arg.Price, arg.Quantity)
	if err != nil {
		return Product{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
}

const findProductByID = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

func (q *Queries) FindProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	rows, err := q.db.Query(ctx, findProductByID, id)
	if err != nil {
		return Product{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
}

const findAllProducts = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

func (q *Queries) FindAllProducts(ctx context.Context) ([]Product, error) {
	return q.collectProducts(ctx, findAllProducts)
}

const findProductsByCategory = `SELECT ` + productColumns + ` FROM products
WHERE category = $1
ORDER BY created_at DESC`

func (q *Queries) FindProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return q.collectProducts(ctx, findProductsByCategory, category)
}

const findProductsByPriceRange = `SELECT ` + productColumns + ` FROM products
WHERE price BETWEEN $1 AND $2
ORDER BY price ASC`

func (q *Queries) FindProductsByPriceRange(ctx context.Context, minPrice, maxPrice int64) ([]Product, error) {
	return q.collectProducts(ctx, findProductsByPriceRange, minPrice, maxPrice)
}

const updateProduct = `UPDATE products
SET name = $2, category = $3, price = $4, quantity = $5, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

func (q *Queries) UpdateProduct(ctx context.Context, id uuid.UUID, arg ProductParams) (Product, error) {
	rows, err := q.db.Query(ctx, updateProduct, id, arg.Name, arg.Category, arg.Price, arg.Quantity)
	if err != nil {
		return Product{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
}

const deleteProduct = `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	rows, err := q.db.Query(ctx, deleteProduct, id)
	if err != nil {
		return Product{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
}

const hasStock = `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND quantity >= $2)`

func (q *Queries) HasStock(ctx context.Context, id uuid.UUID, qty int32) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, hasStock, id, qty).Scan(&ok)
	return ok, err
}

const productExists = `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`

func (q *Queries) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, productExists, id).Scan(&ok)
	return ok, err
}

// decrementStock matches no row when the stock would go negative.
const decrementStock = `UPDATE products
SET quantity = quantity - $2, updated_at = now()
WHERE id = $1 AND quantity >= $2
RETURNING ` + productColumns

func (q *Queries) DecrementStock(ctx context.Context, id uuid.UUID, qty int32) (Product, error) {
	rows, err := q.db.Query(ctx, decrementStock, id, qty)
	if err != nil {
		return Product{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
}

const incrementStock = `UPDATE products
SET quantity = quantity + $2, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

func (q *Queries) IncrementStock(ctx context.Context, id uuid.UUID, qty int32) (Product, error) {
	rows, err := q.db.Query(ctx, incrementStock, id, qty)
	if err != nil {
		return Product{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
}

func (q *Queries) collectProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Product])
}
