package store

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/store/db"
	"github.com/gamevault/inventory/internal/validation"
	"github.com/google/uuid"
)

// InMemoryStore implements Store using maps guarded by a single RWMutex.
// Every stock check-and-modify happens under the write lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]entry[db.Product]
	sales    map[uuid.UUID]entry[db.Sale]
	seq      uint64
	now      func() time.Time
}

// entry remembers insertion order to break timestamp ties.
type entry[T any] struct {
	value T
	seq   uint64
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[uuid.UUID]entry[db.Product]),
		sales:    make(map[uuid.UUID]entry[db.Sale]),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryStore) Create(_ context.Context, params db.ProductParams) (*db.Product, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	product := db.Product{
		ID:        uuid.New(),
		Name:      params.Name,
		Category:  params.Category,
		Price:     params.Price,
		Quantity:  params.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.seq++
	s.products[product.ID] = entry[db.Product]{value: product, seq: s.seq}
	return &product, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*db.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[id]
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	product := e.value
	return &product, nil
}

func (s *InMemoryStore) FindByRawID(ctx context.Context, raw string) (*db.Product, error) {
	id, ok := ParseID(raw)
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) FindAll(_ context.Context) ([]db.Product, error) {
	return s.filterProducts(func(db.Product) bool { return true }, newestProductFirst), nil
}

func (s *InMemoryStore) FindByCategory(_ context.Context, category string) ([]db.Product, error) {
	return s.filterProducts(func(p db.Product) bool { return p.Category == category }, newestProductFirst), nil
}

func (s *InMemoryStore) FindByPriceRange(_ context.Context, minPrice, maxPrice int64) ([]db.Product, error) {
	return s.filterProducts(func(p db.Product) bool {
		return p.Price >= minPrice && p.Price <= maxPrice
	}, func(a, b entry[db.Product]) int {
		return cmp.Or(cmp.Compare(a.value.Price, b.value.Price), cmp.Compare(a.seq, b.seq))
	}), nil
}

func (s *InMemoryStore) Update(_ context.Context, id uuid.UUID, params db.ProductParams) (*db.Product, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[id]
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	e.value.Name = params.Name
	e.value.Category = params.Category
	e.value.Price = params.Price
	e.value.Quantity = params.Quantity
	e.value.UpdatedAt = s.now()
	s.products[id] = e
	product := e.value
	return &product, nil
}

func (s *InMemoryStore) DeleteByID(_ context.Context, id uuid.UUID) (*db.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[id]
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	delete(s.products, id)
	product := e.value
	return &product, nil
}

func (s *InMemoryStore) HasStock(_ context.Context, id uuid.UUID, qty int32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[id]
	return ok && e.value.Quantity >= qty, nil
}

func (s *InMemoryStore) DecrementStock(_ context.Context, id uuid.UUID, qty int32) (*db.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[id]
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	if e.value.Quantity < qty {
		return nil, inverrors.ErrInsufficientStock
	}
	e.value.Quantity -= qty
	e.value.UpdatedAt = s.now()
	s.products[id] = e
	product := e.value
	return &product, nil
}

func (s *InMemoryStore) IncrementStock(_ context.Context, id uuid.UUID, qty int32) (*db.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[id]
	if !ok {
		return nil, inverrors.ErrProductNotFound
	}
	if qty > math.MaxInt32-e.value.Quantity {
		return nil, fmt.Errorf("%w: failed to increment product stock: quantity out of range", inverrors.ErrStorage)
	}
	e.value.Quantity += qty
	e.value.UpdatedAt = s.now()
	s.products[id] = e
	product := e.value
	return &product, nil
}

func (s *InMemoryStore) CreateSale(_ context.Context, params db.CreateSaleParams) (*db.Sale, error) {
	if err := validateSale(params); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	soldAt := params.SoldAt
	if soldAt.IsZero() {
		soldAt = now
	}
	sale := db.Sale{
		ID:        uuid.New(),
		ProductID: params.ProductID,
		Quantity:  params.Quantity,
		UnitPrice: params.UnitPrice,
		Total:     params.Total,
		SoldAt:    soldAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.seq++
	s.sales[sale.ID] = entry[db.Sale]{value: sale, seq: s.seq}
	return &sale, nil
}

func (s *InMemoryStore) FindSaleByID(_ context.Context, id uuid.UUID) (*db.SaleWithProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sales[id]
	if !ok {
		return nil, inverrors.ErrSaleNotFound
	}
	sale := s.withProduct(e.value)
	return &sale, nil
}

func (s *InMemoryStore) FindAllSales(_ context.Context) ([]db.SaleWithProduct, error) {
	return s.filterSales(func(db.Sale) bool { return true }), nil
}

func (s *InMemoryStore) FindSalesByDateRange(_ context.Context, start, end time.Time) ([]db.SaleWithProduct, error) {
	return s.filterSales(func(sale db.Sale) bool {
		return !sale.SoldAt.Before(start) && !sale.SoldAt.After(end)
	}), nil
}

func (s *InMemoryStore) FindSalesByProduct(_ context.Context, productID uuid.UUID) ([]db.SaleWithProduct, error) {
	return s.filterSales(func(sale db.Sale) bool { return sale.ProductID == productID }), nil
}

func (s *InMemoryStore) SalesStatistics(_ context.Context) (*db.SalesStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := db.SalesStatistics{}
	for _, e := range s.sales {
		if e.value.Total > math.MaxInt64-stats.TotalRevenue {
			return nil, fmt.Errorf("%w: failed to aggregate sales: revenue out of range", inverrors.ErrStorage)
		}
		stats.TotalRevenue += e.value.Total
		stats.TotalQuantity += int64(e.value.Quantity)
		stats.Count++
	}
	if stats.Count > 0 {
		stats.AverageTotal = float64(stats.TotalRevenue) / float64(stats.Count)
	}
	return &stats, nil
}

func (s *InMemoryStore) DeleteSale(_ context.Context, id uuid.UUID) (*db.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sales[id]
	if !ok {
		return nil, inverrors.ErrSaleNotFound
	}
	delete(s.sales, id)
	sale := e.value
	return &sale, nil
}

func (s *InMemoryStore) filterProducts(keep func(db.Product) bool, order func(a, b entry[db.Product]) int) []db.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entry[db.Product], 0, len(s.products))
	for _, e := range s.products {
		if keep(e.value) {
			matched = append(matched, e)
		}
	}
	slices.SortFunc(matched, order)
	list := make([]db.Product, 0, len(matched))
	for _, e := range matched {
		list = append(list, e.value)
	}
	return list
}

func (s *InMemoryStore) filterSales(keep func(db.Sale) bool) []db.SaleWithProduct {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]entry[db.Sale], 0, len(s.sales))
	for _, e := range s.sales {
		if keep(e.value) {
			matched = append(matched, e)
		}
	}
	slices.SortFunc(matched, func(a, b entry[db.Sale]) int {
		return cmp.Or(b.value.SoldAt.Compare(a.value.SoldAt), cmp.Compare(b.seq, a.seq))
	})
	list := make([]db.SaleWithProduct, 0, len(matched))
	for _, e := range matched {
		list = append(list, s.withProduct(e.value))
	}
	return list
}

// withProduct must be called with the lock held.
func (s *InMemoryStore) withProduct(sale db.Sale) db.SaleWithProduct {
	joined := db.SaleWithProduct{Sale: sale}
	if p, ok := s.products[sale.ProductID]; ok {
		joined.Product = &db.ProductSummary{Name: p.value.Name, Category: p.value.Category, Price: p.value.Price}
	}
	return joined
}

func newestProductFirst(a, b entry[db.Product]) int {
	return cmp.Or(b.value.CreatedAt.Compare(a.value.CreatedAt), cmp.Compare(b.seq, a.seq))
}
