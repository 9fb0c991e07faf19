package db

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	Price     int64     `db:"price" json:"price"`
	Quantity  int32     `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProductParams carries the writable product fields.
type ProductParams struct {
	Name     string `json:"name"     validate:"required,notblank,max=100"`
	Category string `json:"category" validate:"required,category"`
	Price    int64  `json:"price"    validate:"gt=0"`
	Quantity int32  `json:"quantity" validate:"gte=0"`
}

type Sale struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	Quantity  int32     `db:"quantity" json:"quantity"`
	UnitPrice int64     `db:"unit_price" json:"unit_price"`
	Total     int64     `db:"total" json:"total"`
	SoldAt    time.Time `db:"sold_at" json:"sold_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateSaleParams is a fully derived sale record ready to be persisted.
type CreateSaleParams struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"   validate:"gt=0"`
	UnitPrice int64     `json:"unit_price" validate:"gt=0"`
	Total     int64     `json:"total"      validate:"gt=0"`
	SoldAt    time.Time `json:"sold_at"`
}

// ProductSummary is the product projection attached to sale reads.
type ProductSummary struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
}

// SaleWithProduct is a sale joined with its product.
// Product is nil when the referenced product has been deleted.
type SaleWithProduct struct {
	Sale
	Product *ProductSummary `json:"product"`
}

type SalesStatistics struct {
	TotalRevenue  int64   `json:"total_revenue"`
	TotalQuantity int64   `json:"total_quantity"`
	AverageTotal  float64 `json:"average_total"`
	Count         int64   `json:"count"`
}
