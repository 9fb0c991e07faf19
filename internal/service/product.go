// Package service provides the implementation of the catalog and sale business logic.
package service

import (
	"context"
	"math"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/store"
	"github.com/gamevault/inventory/internal/store/db"
	"github.com/gamevault/inventory/internal/validation"
)

// ProductService defines the methods for managing the catalog.
type ProductService interface {
	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID, including malformed IDs.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// FindAll returns the products matching filter.
	// Returns an empty slice if no products match.
	FindAll(ctx context.Context, filter ProductFilter) ([]ProductDto, error)

	// Create adds a new product to the catalog.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update replaces the writable fields of a product.
	Update(ctx context.Context, id string, product ProductCreateDto) (*ProductDto, error)

	// DeleteByID removes a product and returns it. Its sales are kept.
	DeleteByID(ctx context.Context, id string) (*ProductDto, error)
}

// CatalogService implements ProductService.
type CatalogService struct {
	repository store.ProductStore
}

// NewCatalogService creates a new instance of ProductService with the provided repository.
func NewCatalogService(repo store.ProductStore) *CatalogService {
	return &CatalogService{
		repository: repo,
	}
}

func (s *CatalogService) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductDto(product), nil
}

// FindAll applies at most one filter: a category, or a price range.
// A price range with only one bound is open on the other side.
func (s *CatalogService) FindAll(ctx context.Context, filter ProductFilter) ([]ProductDto, error) {
	var (
		products []db.Product
		err      error
	)
	switch {
	case filter.Category != "":
		if !validation.IsCategory(filter.Category) {
			return nil, inverrors.NewValidationError(inverrors.Violation{
				Field:   "category",
				Rule:    "category",
				Message: "category must be one of [game console]",
			})
		}
		products, err = s.repository.FindByCategory(ctx, filter.Category)
	case filter.MinPrice != nil || filter.MaxPrice != nil:
		minPrice, maxPrice, vErr := priceBounds(filter)
		if vErr != nil {
			return nil, vErr
		}
		products, err = s.repository.FindByPriceRange(ctx, minPrice, maxPrice)
	default:
		products, err = s.repository.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return toProductDtos(products), nil
}

func (s *CatalogService) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	created, err := s.repository.Create(ctx, toParams(product))
	if err != nil {
		return nil, err
	}
	return toProductDto(created), nil
}

func (s *CatalogService) Update(ctx context.Context, id string, product ProductCreateDto) (*ProductDto, error) {
	productID, ok := store.ParseID(id)
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	updated, err := s.repository.Update(ctx, productID, toParams(product))
	if err != nil {
		return nil, err
	}
	return toProductDto(updated), nil
}

func (s *CatalogService) DeleteByID(ctx context.Context, id string) (*ProductDto, error) {
	productID, ok := store.ParseID(id)
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	deleted, err := s.repository.DeleteByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toProductDto(deleted), nil
}

func toParams(dto ProductCreateDto) db.ProductParams {
	return db.ProductParams{
		Name:     dto.Name,
		Category: dto.Category,
		Price:    dto.Price,
		Quantity: dto.Quantity,
	}
}

func priceBounds(filter ProductFilter) (int64, int64, error) {
	minPrice, maxPrice := int64(0), int64(math.MaxInt64)
	if filter.MinPrice != nil {
		minPrice = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		maxPrice = *filter.MaxPrice
	}
	var violations []inverrors.Violation
	if minPrice < 0 {
		violations = append(violations, inverrors.Violation{Field: "minPrice", Rule: "gte", Message: "minPrice must be greater than or equal to 0"})
	}
	if maxPrice < minPrice {
		violations = append(violations, inverrors.Violation{Field: "maxPrice", Rule: "gtefield", Message: "maxPrice must be greater than or equal to minPrice"})
	}
	if len(violations) > 0 {
		return 0, 0, inverrors.NewValidationError(violations...)
	}
	return minPrice, maxPrice, nil
}
