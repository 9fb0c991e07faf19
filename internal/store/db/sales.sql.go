package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const saleColumns = `id, product_id, quantity, unit_price, total, sold_at, created_at, updated_at`

const createSale = `INSERT INTO sales (id, product_id, quantity, unit_price, total, sold_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + saleColumns

func (q *Queries) CreateSale(ctx context.Context, id uuid.UUID, arg CreateSaleParams) (Sale, error) {
	rows, err := q.db.Query(ctx, createSale, id, arg.ProductID, arg.Quantity, arg.UnitPrice, arg.Total, arg.SoldAt)
	if err != nil {
		return Sale{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Sale])
}

const deleteSale = `DELETE FROM sales WHERE id = $1 RETURNING ` + saleColumns

func (q *Queries) DeleteSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	rows, err := q.db.Query(ctx, deleteSale, id)
	if err != nil {
		return Sale{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Sale])
}

// Sales are left-joined so that sales of deleted products stay visible.
const selectSalesWithProduct = `SELECT s.id, s.product_id, s.quantity, s.unit_price, s.total, s.sold_at, s.created_at, s.updated_at,
       p.name, p.category, p.price
FROM sales s
LEFT JOIN products p ON p.id = s.product_id`

const findSaleByID = selectSalesWithProduct + `
WHERE s.id = $1`

func (q *Queries) FindSaleByID(ctx context.Context, id uuid.UUID) (SaleWithProduct, error) {
	rows, err := q.db.Query(ctx, findSaleByID, id)
	if err != nil {
		return SaleWithProduct{}, err
	}
	return pgx.CollectExactlyOneRow(rows, scanSaleWithProduct)
}

const findAllSales = selectSalesWithProduct + `
ORDER BY s.sold_at DESC`

func (q *Queries) FindAllSales(ctx context.Context) ([]SaleWithProduct, error) {
	return q.collectSales(ctx, findAllSales)
}

const findSalesByDateRange = selectSalesWithProduct + `
WHERE s.sold_at BETWEEN $1 AND $2
ORDER BY s.sold_at DESC`

func (q *Queries) FindSalesByDateRange(ctx context.Context, start, end time.Time) ([]SaleWithProduct, error) {
	return q.collectSales(ctx, findSalesByDateRange, start, end)
}

const findSalesByProduct = selectSalesWithProduct + `
WHERE s.product_id = $1
ORDER BY s.sold_at DESC`

func (q *Queries) FindSalesByProduct(ctx context.Context, productID uuid.UUID) ([]SaleWithProduct, error) {
	return q.collectSales(ctx, findSalesByProduct, productID)
}

const salesStatistics = `SELECT COALESCE(SUM(total), 0)::bigint,
       COALESCE(SUM(quantity), 0)::bigint,
       COALESCE(AVG(total), 0)::float8,
       COUNT(*)
FROM sales`

func (q *Queries) SalesStatistics(ctx context.Context) (SalesStatistics, error) {
	var s SalesStatistics
	err := q.db.QueryRow(ctx, salesStatistics).Scan(&s.TotalRevenue, &s.TotalQuantity, &s.AverageTotal, &s.Count)
	return s, err
}

func (q *Queries) collectSales(ctx context.Context, sql string, args ...any) ([]SaleWithProduct, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanSaleWithProduct)
}

func scanSaleWithProduct(row pgx.CollectableRow) (SaleWithProduct, error) {
	var (
		s        SaleWithProduct
		name     *string
		category *string
		price    *int64
	)
	err := row.Scan(
		&s.ID, &s.ProductID, &s.Quantity, &s.UnitPrice, &s.Total, &s.SoldAt, &s.CreatedAt, &s.UpdatedAt,
		&name, &category, &price,
	)
	if err != nil {
		return SaleWithProduct{}, err
	}
	if name != nil {
		s.Product = &ProductSummary{Name: *name, Category: *category, Price: *price}
	}
	return s, nil
}
