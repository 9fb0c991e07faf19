package service

import (
	"time"

	"github.com/gamevault/inventory/internal/store/db"
)

// ProductCreateDto represents the writable fields of a product.
// It is used for both creation and full updates.
type ProductCreateDto struct {
	Name     string `json:"name"     validate:"required,notblank,max=100"`
	Category string `json:"category" validate:"required,category"`
	Price    int64  `json:"price"    validate:"gt=0"`
	Quantity int32  `json:"quantity" validate:"gte=0"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Price     int64  `json:"price"`
	Quantity  int32  `json:"quantity"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ProductFilter narrows a product listing. Zero value lists everything.
type ProductFilter struct {
	Category string
	MinPrice *int64
	MaxPrice *int64
}

// SaleCreateDto is the input of RecordSale.
type SaleCreateDto struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int32  `json:"quantity"   validate:"gt=0"`
}

type ProductSummaryDto struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
}

// SaleDto represents a sale. Product is null for sales whose product was deleted.
type SaleDto struct {
	ID        string             `json:"id"`
	ProductID string             `json:"product_id"`
	Quantity  int32              `json:"quantity"`
	UnitPrice int64              `json:"unit_price"`
	Total     int64              `json:"total"`
	SoldAt    string             `json:"sold_at"`
	CreatedAt string             `json:"created_at"`
	Product   *ProductSummaryDto `json:"product"`
}

type StatisticsDto struct {
	TotalRevenue  int64   `json:"total_revenue"`
	TotalQuantity int64   `json:"total_quantity"`
	AverageTotal  float64 `json:"average_total"`
	Count         int64   `json:"count"`
}

func toProductDto(p *db.Product) *ProductDto {
	if p == nil {
		return nil
	}
	return &ProductDto{
		ID:        p.ID.String(),
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Quantity:  p.Quantity,
		CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func toProductDtos(products []db.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toProductDto(&products[i])
	}
	return dtos
}

func toSaleDto(s *db.Sale, product *db.ProductSummary) *SaleDto {
	dto := &SaleDto{
		ID:        s.ID.String(),
		ProductID: s.ProductID.String(),
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
		Total:     s.Total,
		SoldAt:    s.SoldAt.Format(time.RFC3339Nano),
		CreatedAt: s.CreatedAt.Format(time.RFC3339Nano),
	}
	if product != nil {
		dto.Product = &ProductSummaryDto{Name: product.Name, Category: product.Category, Price: product.Price}
	}
	return dto
}

func toSaleDtos(sales []db.SaleWithProduct) []SaleDto {
	dtos := make([]SaleDto, len(sales))
	for i := range sales {
		dtos[i] = *toSaleDto(&sales[i].Sale, sales[i].Product)
	}
	return dtos
}
