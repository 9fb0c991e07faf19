// Package store provides the storage contracts for products and sales.
package store

import (
	"context"
	"math"
	"time"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/store/db"
	"github.com/google/uuid"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// Create validates and persists a new product.
	// Returns a *ValidationError listing every violated rule.
	Create(ctx context.Context, params db.ProductParams) (*db.Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*db.Product, error)

	// FindByRawID is FindByID for identifiers that have not been parsed yet.
	// A malformed identifier is reported as ErrProductNotFound.
	FindByRawID(ctx context.Context, raw string) (*db.Product, error)

	// FindAll returns all products, newest first.
	FindAll(ctx context.Context) ([]db.Product, error)

	FindByCategory(ctx context.Context, category string) ([]db.Product, error)

	// FindByPriceRange returns products priced within [minPrice, maxPrice], cheapest first.
	FindByPriceRange(ctx context.Context, minPrice, maxPrice int64) ([]db.Product, error)

	// Update replaces the writable fields of a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, params db.ProductParams) (*db.Product, error)

	// DeleteByID removes a product and returns the removed record.
	// Sales referencing the product are left in place.
	DeleteByID(ctx context.Context, id uuid.UUID) (*db.Product, error)

	// HasStock reports whether the product exists and holds at least qty units.
	HasStock(ctx context.Context, id uuid.UUID, qty int32) (bool, error)

	// DecrementStock subtracts qty from the product stock if, and only if, enough stock is available.
	// The check and the subtraction are a single atomic step.
	// Returns ErrInsufficientStock or ErrProductNotFound when nothing was changed.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int32) (*db.Product, error)

	// IncrementStock adds qty to the product stock.
	IncrementStock(ctx context.Context, id uuid.UUID, qty int32) (*db.Product, error)
}

// SaleStore is an interface for sale storage operations.
// Reads join each sale with a summary of its product.
type SaleStore interface {
	// CreateSale persists a fully derived sale record.
	CreateSale(ctx context.Context, params db.CreateSaleParams) (*db.Sale, error)

	// FindSaleByID returns ErrSaleNotFound if no sale exists with the given ID.
	FindSaleByID(ctx context.Context, id uuid.UUID) (*db.SaleWithProduct, error)

	// FindAllSales returns all sales, most recent first.
	FindAllSales(ctx context.Context) ([]db.SaleWithProduct, error)

	// FindSalesByDateRange returns sales with start <= sold_at <= end, most recent first.
	FindSalesByDateRange(ctx context.Context, start, end time.Time) ([]db.SaleWithProduct, error)

	FindSalesByProduct(ctx context.Context, productID uuid.UUID) ([]db.SaleWithProduct, error)

	// SalesStatistics aggregates all sales. Every figure is zero when there are none.
	SalesStatistics(ctx context.Context) (*db.SalesStatistics, error)

	// DeleteSale removes a sale and returns the removed record.
	// Returns ErrSaleNotFound if no sale exists with the given ID. Stock is not touched.
	DeleteSale(ctx context.Context, id uuid.UUID) (*db.Sale, error)
}

// Store combines product and sale storage.
type Store interface {
	ProductStore
	SaleStore
}

// Transactor is implemented by stores able to run several operations in one transaction.
type Transactor interface {
	// WithinTx runs fn against a store bound to a single transaction.
	// The transaction is committed when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// ParseID parses a textual identifier.
func ParseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SaleTotal returns quantity multiplied by unitPrice.
// ok is false when the result does not fit in an int64.
func SaleTotal(quantity int32, unitPrice int64) (total int64, ok bool) {
	if quantity > 0 && unitPrice > math.MaxInt64/int64(quantity) {
		return 0, false
	}
	return int64(quantity) * unitPrice, true
}

// TotalOverflow is the violation reported when a sale total does not fit in an int64.
func TotalOverflow() error {
	return inverrors.NewValidationError(inverrors.Violation{
		Field:   "quantity",
		Rule:    "overflow",
		Message: "quantity multiplied by unit_price exceeds the largest supported total",
	})
}
