package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/store"
	"github.com/gamevault/inventory/internal/store/db"
	"github.com/gamevault/inventory/internal/validation"
	ctxlog "github.com/gamevault/inventory/pkg/logger"
	"github.com/gamevault/inventory/pkg/messaging"
	"github.com/gamevault/inventory/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// SaleService records and removes sales while keeping product stock consistent with them.
type SaleService interface {
	// RecordSale validates the request, snapshots the product price, takes the stock and persists the sale.
	// Returns a *ValidationError, ErrProductNotFound, ErrInsufficientStock or ErrStorage.
	// When persisting fails after the stock was taken, the stock is given back before the error is returned.
	RecordSale(ctx context.Context, sale SaleCreateDto) (*SaleDto, error)

	// DeleteSale removes a sale and restores the sold quantity to its product.
	// Returns ErrSaleNotFound, leaving stock unchanged, if the sale does not exist.
	DeleteSale(ctx context.Context, id string) (*SaleDto, error)

	FindByID(ctx context.Context, id string) (*SaleDto, error)
	FindAll(ctx context.Context) ([]SaleDto, error)

	// FindByDateRange returns the sales with from <= sold_at <= to.
	FindByDateRange(ctx context.Context, from, to time.Time) ([]SaleDto, error)

	FindByProduct(ctx context.Context, productID string) ([]SaleDto, error)
	Statistics(ctx context.Context) (*StatisticsDto, error)
}

// SaleOption configures a SaleCoordinator.
type SaleOption func(*SaleCoordinator)

// WithTransactor makes the coordinator run each sale inside a single store transaction
// instead of relying on compensation.
func WithTransactor(t store.Transactor) SaleOption {
	return func(c *SaleCoordinator) {
		c.transactor = t
	}
}

// WithClock overrides the time source used for sale timestamps.
func WithClock(now func() time.Time) SaleOption {
	return func(c *SaleCoordinator) {
		c.now = now
	}
}

// SaleCoordinator implements SaleService.
type SaleCoordinator struct {
	products   store.ProductStore
	sales      store.SaleStore
	transactor store.Transactor
	publisher  messaging.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	recordedCounter      metric.Int64Counter
	rejectedCounter      metric.Int64Counter
	compensationsCounter metric.Int64Counter
}

// NewSaleCoordinator creates a SaleCoordinator. Without WithTransactor every sale uses the compensating path.
func NewSaleCoordinator(products store.ProductStore, sales store.SaleStore, publisher messaging.Publisher, logger *slog.Logger, opts ...SaleOption) *SaleCoordinator {
	meter := otel.Meter("inventory")
	recorded, err := meter.Int64Counter("sales_recorded", metric.WithDescription("Total number of recorded sales"))
	if err != nil {
		panic(fmt.Sprintf("failed to create sales_recorded counter: %v", err))
	}
	rejected, err := meter.Int64Counter("sales_rejected_insufficient_stock", metric.WithDescription("Sales rejected because of insufficient stock"))
	if err != nil {
		panic(fmt.Sprintf("failed to create sales_rejected_insufficient_stock counter: %v", err))
	}
	compensations, err := meter.Int64Counter("stock_compensations", metric.WithDescription("Stock decrements given back after a failed sale insert"))
	if err != nil {
		panic(fmt.Sprintf("failed to create stock_compensations counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}

	c := &SaleCoordinator{
		products:             products,
		sales:                sales,
		publisher:            publisher,
		logger:               logger.With("component", "sale_coordinator"),
		tracer:               otel.Tracer("inventory/service"),
		now:                  func() time.Time { return time.Now().UTC() },
		recordedCounter:      recorded,
		rejectedCounter:      rejected,
		compensationsCounter: compensations,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SaleCoordinator) RecordSale(ctx context.Context, dto SaleCreateDto) (*SaleDto, error) {
	ctx, span := c.tracer.Start(ctx, "SaleService.RecordSale", trace.WithAttributes(
		attribute.String("product.id", dto.ProductID),
		attribute.Int("sale.quantity", int(dto.Quantity)),
	))
	defer span.End()

	if err := validation.Struct(dto); err != nil {
		return nil, fail(span, err)
	}
	productID, ok := store.ParseID(dto.ProductID)
	if !ok {
		return nil, fail(span, inverrors.NewValidationError(inverrors.Violation{
			Field: "product_id", Rule: "uuid", Message: "product_id must be a valid identifier",
		}))
	}
	ctx = ctxlog.AppendCtx(ctx, slog.String("product_id", productID.String()))

	var (
		sale    *db.Sale
		product *db.Product
		err     error
	)
	if c.transactor != nil {
		err = c.transactor.WithinTx(ctx, func(tx store.Store) error {
			sale, product, err = c.recordSale(ctx, tx, tx, productID, dto.Quantity, false)
			return err
		})
	} else {
		sale, product, err = c.recordSale(ctx, c.products, c.sales, productID, dto.Quantity, true)
	}
	if err != nil {
		if errors.Is(err, inverrors.ErrInsufficientStock) {
			c.rejectedCounter.Add(ctx, 1)
			c.logger.WarnContext(ctx, "Insufficient stock", "requested", dto.Quantity)
		}
		return nil, fail(span, err)
	}

	c.recordedCounter.Add(ctx, 1)
	c.publish(ctx, events.SaleRecordedEvent{Sale: c.eventPayload(ctx, sale)})
	span.SetAttributes(attribute.String("sale.id", sale.ID.String()))
	return toSaleDto(sale, &db.ProductSummary{Name: product.Name, Category: product.Category, Price: product.Price}), nil
}

// recordSale runs lookup, decrement and insert against the given stores.
// With compensate set, a failed insert gives the decremented stock back.
func (c *SaleCoordinator) recordSale(ctx context.Context, products store.ProductStore, sales store.SaleStore, productID uuid.UUID, qty int32, compensate bool) (*db.Sale, *db.Product, error) {
	product, err := products.FindByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	unitPrice := product.Price
	total, ok := store.SaleTotal(qty, unitPrice)
	if !ok {
		return nil, nil, store.TotalOverflow()
	}
	params := db.CreateSaleParams{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Total:     total,
		SoldAt:    c.now(),
	}

	if _, err := products.DecrementStock(ctx, productID, qty); err != nil {
		return nil, nil, err
	}

	sale, err := sales.CreateSale(ctx, params)
	if err == nil {
		return sale, product, nil
	}
	if !compensate {
		return nil, nil, err
	}

	c.compensationsCounter.Add(ctx, 1)
	if _, cErr := products.IncrementStock(ctx, productID, qty); cErr != nil {
		c.logger.ErrorContext(ctx, "Failed to restore stock after sale insert failure",
			"quantity", qty, "error", cErr, "cause", err)
		return nil, nil, errors.Join(err, cErr)
	}
	c.logger.WarnContext(ctx, "Sale insert failed, stock restored", "quantity", qty, "error", err)
	return nil, nil, err
}

func (c *SaleCoordinator) DeleteSale(ctx context.Context, id string) (*SaleDto, error) {
	ctx, span := c.tracer.Start(ctx, "SaleService.DeleteSale", trace.WithAttributes(attribute.String("sale.id", id)))
	defer span.End()

	saleID, ok := store.ParseID(id)
	if !ok {
		return nil, fail(span, inverrors.ErrSaleNotFound)
	}
	ctx = ctxlog.AppendCtx(ctx, slog.String("sale_id", saleID.String()))

	var (
		sale *db.Sale
		err  error
	)
	if c.transactor != nil {
		err = c.transactor.WithinTx(ctx, func(tx store.Store) error {
			sale, err = c.deleteSale(ctx, tx, tx, saleID)
			return err
		})
	} else {
		sale, err = c.deleteSale(ctx, c.products, c.sales, saleID)
	}
	if err != nil {
		return nil, fail(span, err)
	}

	c.publish(ctx, events.SaleDeletedEvent{Sale: c.eventPayload(ctx, sale)})
	return toSaleDto(sale, nil), nil
}

// deleteSale removes the sale first and restores stock second, so a retry after a
// partial failure can never restore the same quantity twice.
func (c *SaleCoordinator) deleteSale(ctx context.Context, products store.ProductStore, sales store.SaleStore, saleID uuid.UUID) (*db.Sale, error) {
	sale, err := sales.DeleteSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if _, err := products.IncrementStock(ctx, sale.ProductID, sale.Quantity); err != nil {
		if errors.Is(err, inverrors.ErrProductNotFound) {
			// the product was deleted after the sale; there is no stock left to restore
			c.logger.WarnContext(ctx, "Deleted sale of a removed product", "product_id", sale.ProductID)
			return sale, nil
		}
		c.logger.ErrorContext(ctx, "Failed to restore stock for deleted sale",
			"product_id", sale.ProductID, "quantity", sale.Quantity, "error", err)
		return nil, err
	}
	return sale, nil
}

func (c *SaleCoordinator) FindByID(ctx context.Context, id string) (*SaleDto, error) {
	saleID, ok := store.ParseID(id)
	if !ok {
		return nil, inverrors.ErrSaleNotFound
	}
	sale, err := c.sales.FindSaleByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return toSaleDto(&sale.Sale, sale.Product), nil
}

func (c *SaleCoordinator) FindAll(ctx context.Context) ([]SaleDto, error) {
	sales, err := c.sales.FindAllSales(ctx)
	if err != nil {
		return nil, err
	}
	return toSaleDtos(sales), nil
}

func (c *SaleCoordinator) FindByDateRange(ctx context.Context, from, to time.Time) ([]SaleDto, error) {
	if to.Before(from) {
		return nil, inverrors.NewValidationError(inverrors.Violation{
			Field:   "to",
			Rule:    "gtefield",
			Message: "to must not be before from",
		})
	}
	sales, err := c.sales.FindSalesByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return toSaleDtos(sales), nil
}

func (c *SaleCoordinator) FindByProduct(ctx context.Context, productID string) ([]SaleDto, error) {
	id, ok := store.ParseID(productID)
	if !ok {
		return []SaleDto{}, nil
	}
	sales, err := c.sales.FindSalesByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSaleDtos(sales), nil
}

func (c *SaleCoordinator) Statistics(ctx context.Context) (*StatisticsDto, error) {
	stats, err := c.sales.SalesStatistics(ctx)
	if err != nil {
		return nil, err
	}
	return &StatisticsDto{
		TotalRevenue:  stats.TotalRevenue,
		TotalQuantity: stats.TotalQuantity,
		AverageTotal:  stats.AverageTotal,
		Count:         stats.Count,
	}, nil
}

func (c *SaleCoordinator) eventPayload(ctx context.Context, sale *db.Sale) events.Sale {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return events.Sale{
		Carrier:   carrier,
		SaleID:    sale.ID,
		ProductID: sale.ProductID,
		Quantity:  sale.Quantity,
		UnitPrice: sale.UnitPrice,
		Total:     sale.Total,
		Timestamp: c.now(),
	}
}

// publish never fails the caller: the sale is already committed.
func (c *SaleCoordinator) publish(ctx context.Context, event messaging.Event) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
