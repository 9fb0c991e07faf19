package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/store/db"
	"github.com/gamevault/inventory/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store and Transactor using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool // nil when the store is bound to a transaction
	q  *db.Queries
}

// NewPgStore creates a new instance of PgStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
		q:  db.New(dbp),
	}
}

// Create validates and adds a new product.
func (p *PgStore) Create(ctx context.Context, params db.ProductParams) (*db.Product, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	product, err := p.q.CreateProduct(ctx, uuid.New(), params)
	if err != nil {
		return nil, storageErr("failed to create product", err)
	}
	return &product, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*db.Product, error) {
	product, err := p.q.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrProductNotFound
		}
		return nil, storageErr("failed to find product by ID", err)
	}
	return &product, nil
}

func (p *PgStore) FindByRawID(ctx context.Context, raw string) (*db.Product, error) {
	id, ok := ParseID(raw)
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	return p.FindByID(ctx, id)
}

func (p *PgStore) FindAll(ctx context.Context) ([]db.Product, error) {
	products, err := p.q.FindAllProducts(ctx)
	if err != nil {
		return nil, storageErr("failed to find all products", err)
	}
	return products, nil
}

func (p *PgStore) FindByCategory(ctx context.Context, category string) ([]db.Product, error) {
	products, err := p.q.FindProductsByCategory(ctx, category)
	if err != nil {
		return nil, storageErr("failed to find products by category", err)
	}
	return products, nil
}

func (p *PgStore) FindByPriceRange(ctx context.Context, minPrice, maxPrice int64) ([]db.Product, error) {
	products, err := p.q.FindProductsByPriceRange(ctx, minPrice, maxPrice)
	if err != nil {
		return nil, storageErr("failed to find products by price range", err)
	}
	return products, nil
}

// Update modifies an existing product's details.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Update(ctx context.Context, id uuid.UUID, params db.ProductParams) (*db.Product, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	product, err := p.q.UpdateProduct(ctx, id, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrProductNotFound
		}
		return nil, storageErr("failed to update product", err)
	}
	return &product, nil
}

// DeleteByID removes a product by its unique identifier.
func (p *PgStore) DeleteByID(ctx context.Context, id uuid.UUID) (*db.Product, error) {
	product, err := p.q.DeleteProduct(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrProductNotFound
		}
		return nil, storageErr("failed to delete product by ID", err)
	}
	return &product, nil
}

func (p *PgStore) HasStock(ctx context.Context, id uuid.UUID, qty int32) (bool, error) {
	ok, err := p.q.HasStock(ctx, id, qty)
	if err != nil {
		return false, storageErr("failed to check product stock", err)
	}
	return ok, nil
}

// DecrementStock runs a single conditional UPDATE, so concurrent sales of the same product
// can never take the stock below zero.
func (p *PgStore) DecrementStock(ctx context.Context, id uuid.UUID, qty int32) (*db.Product, error) {
	product, err := p.q.DecrementStock(ctx, id, qty)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storageErr("failed to decrement product stock", err)
	}
	// No row matched: either the product is gone or its stock is too low.
	exists, err := p.q.ProductExists(ctx, id)
	if err != nil {
		return nil, storageErr("failed to check product existence", err)
	}
	if !exists {
		return nil, inverrors.ErrProductNotFound
	}
	return nil, inverrors.ErrInsufficientStock
}

func (p *PgStore) IncrementStock(ctx context.Context, id uuid.UUID, qty int32) (*db.Product, error) {
	product, err := p.q.IncrementStock(ctx, id, qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrProductNotFound
		}
		return nil, storageErr("failed to increment product stock", err)
	}
	return &product, nil
}

func (p *PgStore) CreateSale(ctx context.Context, params db.CreateSaleParams) (*db.Sale, error) {
	if err := validateSale(params); err != nil {
		return nil, err
	}
	sale, err := p.q.CreateSale(ctx, uuid.New(), params)
	if err != nil {
		return nil, storageErr("failed to create sale", err)
	}
	return &sale, nil
}

func (p *PgStore) FindSaleByID(ctx context.Context, id uuid.UUID) (*db.SaleWithProduct, error) {
	sale, err := p.q.FindSaleByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrSaleNotFound
		}
		return nil, storageErr("failed to find sale by ID", err)
	}
	return &sale, nil
}

func (p *PgStore) FindAllSales(ctx context.Context) ([]db.SaleWithProduct, error) {
	sales, err := p.q.FindAllSales(ctx)
	if err != nil {
		return nil, storageErr("failed to find all sales", err)
	}
	return sales, nil
}

func (p *PgStore) FindSalesByDateRange(ctx context.Context, start, end time.Time) ([]db.SaleWithProduct, error) {
	sales, err := p.q.FindSalesByDateRange(ctx, start, end)
	if err != nil {
		return nil, storageErr("failed to find sales by date range", err)
	}
	return sales, nil
}

func (p *PgStore) FindSalesByProduct(ctx context.Context, productID uuid.UUID) ([]db.SaleWithProduct, error) {
	sales, err := p.q.FindSalesByProduct(ctx, productID)
	if err != nil {
		return nil, storageErr("failed to find sales by product", err)
	}
	return sales, nil
}

func (p *PgStore) SalesStatistics(ctx context.Context) (*db.SalesStatistics, error) {
	stats, err := p.q.SalesStatistics(ctx)
	if err != nil {
		return nil, storageErr("failed to aggregate sales", err)
	}
	return &stats, nil
}

func (p *PgStore) DeleteSale(ctx context.Context, id uuid.UUID) (*db.Sale, error) {
	sale, err := p.q.DeleteSale(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrSaleNotFound
		}
		return nil, storageErr("failed to delete sale", err)
	}
	return &sale, nil
}

// WithinTx runs fn inside a database transaction.
// Calls made on an already transaction-bound store join the running transaction.
func (p *PgStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if p.db == nil {
		return fn(p)
	}
	return p.withTransaction(ctx, func(qtx *db.Queries) error {
		return fn(&PgStore{q: qtx})
	})
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(qtx *db.Queries) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w: %w", inverrors.ErrStorage, inverrors.ErrTransactionBegin, err)
	}
	qtx := p.q.WithTx(tx)

	err = fn(qtx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w: %w: %w", inverrors.ErrStorage, inverrors.ErrTransactionRollback, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w: %w", inverrors.ErrStorage, inverrors.ErrTransactionCommit, err)
	}

	return nil
}

func storageErr(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", inverrors.ErrStorage, msg, err)
}

// validateSale checks the tag rules and that the total is derived from quantity and unit price.
func validateSale(params db.CreateSaleParams) error {
	if err := validation.Struct(params); err != nil {
		return err
	}
	total, ok := SaleTotal(params.Quantity, params.UnitPrice)
	if !ok {
		return TotalOverflow()
	}
	if params.Total != total {
		return inverrors.NewValidationError(inverrors.Violation{
			Field:   "total",
			Rule:    "derived",
			Message: "total must equal quantity multiplied by unit_price",
		})
	}
	return nil
}
