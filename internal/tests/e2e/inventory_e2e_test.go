// Package e2e runs the inventory HTTP API against a real PostgreSQL instance.
// Each suite starts a container with testcontainers-go, applies the embedded migrations
// and serves the application handler from an httptest.Server. Tables are truncated before every test.
// The suite runs twice: once with the transactional sale path and once with the compensating one.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gamevault/inventory/internal/app"
	"github.com/gamevault/inventory/internal/service"
	"github.com/gamevault/inventory/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "INVENTORY_SKIP_INTEGRATION_TESTS"

const (
	productURL = "/api/v1/products"
	saleURL    = "/api/v1/sales"
)

type InventoryE2ESuite struct {
	suite.Suite
	transactional bool
	pgContainer   *postgres.PostgresContainer
	dbPool        *pgxpool.Pool
	server        *httptest.Server
	httpClient    *http.Client
	logger        *slog.Logger
	ctx           context.Context
}

func (s *InventoryE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("inventory"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	require.NoError(s.T(), store.Migrate(connStr), "Failed to apply migrations")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")
	for i := range 10 {
		s.logger.Info("Pinging E2E PostgreSQL database", "attempt", i+1)
		if err = s.dbPool.Ping(s.ctx); err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	deps := app.SetupDependencies(store.NewPgStore(s.dbPool), s.logger, app.Options{
		Transactional: s.transactional,
		Health:        s.dbPool.Ping,
	})
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
}

func (s *InventoryE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate E2E PostgreSQL container", "error", err)
		}
	}
}

func (s *InventoryE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE sales, products")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func TestInventoryE2E_Transactional(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, &InventoryE2ESuite{transactional: true})
}

func TestInventoryE2E_Compensating(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, &InventoryE2ESuite{transactional: false})
}

// --------------------------------------------------------------------------
// ---------------------------- Helper methods ------------------------------
// --------------------------------------------------------------------------

type productPayload struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
}

type salePayload struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

// doRequest sends payload as JSON and returns the response body and status code.
func (s *InventoryE2ESuite) doRequest(method, path string, payload any) ([]byte, int) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() {
		require.NoError(s.T(), resp.Body.Close(), "Failed to close response body")
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	return bodyBytes, resp.StatusCode
}

func decodeInto[T any](s *InventoryE2ESuite, body []byte) T {
	s.T().Helper()
	var v T
	require.NoError(s.T(), json.Unmarshal(body, &v), "Failed to decode response: %s", body)
	return v
}

func (s *InventoryE2ESuite) createProduct(p productPayload) service.ProductDto {
	s.T().Helper()
	body, code := s.doRequest(http.MethodPost, productURL, p)
	require.Equal(s.T(), http.StatusCreated, code, string(body))
	return decodeInto[service.ProductDto](s, body)
}

func (s *InventoryE2ESuite) findProduct(id string) (service.ProductDto, int) {
	s.T().Helper()
	body, code := s.doRequest(http.MethodGet, productURL+"/"+id, nil)
	if code != http.StatusOK {
		return service.ProductDto{}, code
	}
	return decodeInto[service.ProductDto](s, body), code
}

func (s *InventoryE2ESuite) recordSale(productID string, qty int32) (service.SaleDto, int) {
	s.T().Helper()
	body, code := s.doRequest(http.MethodPost, saleURL, salePayload{ProductID: productID, Quantity: qty})
	if code != http.StatusCreated {
		return service.SaleDto{}, code
	}
	return decodeInto[service.SaleDto](s, body), code
}

func (s *InventoryE2ESuite) statistics() service.StatisticsDto {
	s.T().Helper()
	body, code := s.doRequest(http.MethodGet, saleURL+"/statistics", nil)
	require.Equal(s.T(), http.StatusOK, code)
	return decodeInto[service.StatisticsDto](s, body)
}

// --------------------------------------------------------------
// ---------------------- E2E test methods ----------------------
// --------------------------------------------------------------

func (s *InventoryE2ESuite) TestProductLifecycle_E2E() {
	// given
	created := s.createProduct(productPayload{Name: "PlayStation 5", Category: "console", Price: 3200000, Quantity: 15})

	// when
	body, code := s.doRequest(http.MethodPut, productURL+"/"+created.ID,
		productPayload{Name: "PlayStation 5 Slim", Category: "console", Price: 2900000, Quantity: 20})

	// then
	s.Require().Equal(http.StatusOK, code, string(body))
	updated := decodeInto[service.ProductDto](s, body)
	s.Equal("PlayStation 5 Slim", updated.Name)
	s.Equal(int32(20), updated.Quantity)

	_, code = s.doRequest(http.MethodDelete, productURL+"/"+created.ID, nil)
	s.Equal(http.StatusOK, code)
	_, code = s.findProduct(created.ID)
	s.Equal(http.StatusNotFound, code)
}

func (s *InventoryE2ESuite) TestCreateProduct_Validation_E2E() {
	testCases := []struct {
		name    string
		payload productPayload
		field   string
	}{
		{name: "blank name", payload: productPayload{Name: "   ", Category: "game", Price: 100, Quantity: 1}, field: "name"},
		{name: "unknown category", payload: productPayload{Name: "Tetris", Category: "toy", Price: 100, Quantity: 1}, field: "category"},
		{name: "zero price", payload: productPayload{Name: "Tetris", Category: "game", Price: 0, Quantity: 1}, field: "price"},
		{name: "negative quantity", payload: productPayload{Name: "Tetris", Category: "game", Price: 100, Quantity: -1}, field: "quantity"},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// when
			body, code := s.doRequest(http.MethodPost, productURL, tc.payload)

			// then
			s.Require().Equal(http.StatusBadRequest, code)
			s.Contains(string(body), fmt.Sprintf("%q", tc.field))
		})
	}
}

func (s *InventoryE2ESuite) TestProductFilters_E2E() {
	// given
	s.createProduct(productPayload{Name: "Xbox Series X", Category: "console", Price: 3000000, Quantity: 12})
	s.createProduct(productPayload{Name: "FIFA 24", Category: "game", Price: 150000, Quantity: 50})
	s.createProduct(productPayload{Name: "Spider-Man 2", Category: "game", Price: 220000, Quantity: 18})

	testCases := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all", query: "", want: []string{"Spider-Man 2", "FIFA 24", "Xbox Series X"}},
		{name: "by category", query: "?category=game", want: []string{"Spider-Man 2", "FIFA 24"}},
		{name: "by price range", query: "?minPrice=100000&maxPrice=250000", want: []string{"FIFA 24", "Spider-Man 2"}},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// when
			body, code := s.doRequest(http.MethodGet, productURL+tc.query, nil)

			// then
			s.Require().Equal(http.StatusOK, code)
			var names []string
			for _, p := range decodeInto[[]service.ProductDto](s, body) {
				names = append(names, p.Name)
			}
			s.Equal(tc.want, names)
		})
	}
}

func (s *InventoryE2ESuite) TestSaleFlow_E2E() {
	// given
	product := s.createProduct(productPayload{Name: "FIFA 24", Category: "game", Price: 150000, Quantity: 10})

	// when
	sale, code := s.recordSale(product.ID, 4)

	// then
	s.Require().Equal(http.StatusCreated, code)
	s.Equal(int64(600000), sale.Total)
	s.Equal(int64(150000), sale.UnitPrice)
	s.Require().NotNil(sale.Product)
	s.Equal("FIFA 24", sale.Product.Name)

	found, _ := s.findProduct(product.ID)
	s.Equal(int32(6), found.Quantity)

	_, code = s.recordSale(product.ID, 7)
	s.Equal(http.StatusConflict, code, "selling more than the stock must be rejected")
	found, _ = s.findProduct(product.ID)
	s.Equal(int32(6), found.Quantity, "rejected sale must not touch the stock")

	_, code = s.recordSale(uuid.NewString(), 1)
	s.Equal(http.StatusNotFound, code)

	s.Equal(service.StatisticsDto{TotalRevenue: 600000, TotalQuantity: 4, AverageTotal: 600000, Count: 1}, s.statistics())

	body, code := s.doRequest(http.MethodGet, saleURL+"/by-product/"+product.ID, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(decodeInto[[]service.SaleDto](s, body), 1)

	today := time.Now().UTC().Format("2006-01-02")
	body, code = s.doRequest(http.MethodGet, saleURL+"/by-date?from="+today+"&to="+today, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(decodeInto[[]service.SaleDto](s, body), 1)

	// when the sale is deleted
	_, code = s.doRequest(http.MethodDelete, saleURL+"/"+sale.ID, nil)

	// then its quantity is given back
	s.Equal(http.StatusOK, code)
	found, _ = s.findProduct(product.ID)
	s.Equal(int32(10), found.Quantity)
	s.Equal(service.StatisticsDto{}, s.statistics())
}

func (s *InventoryE2ESuite) TestOrphanedSale_E2E() {
	// given
	product := s.createProduct(productPayload{Name: "Mario Kart 8 Deluxe", Category: "game", Price: 160000, Quantity: 3})
	sale, code := s.recordSale(product.ID, 1)
	s.Require().Equal(http.StatusCreated, code)

	// when
	_, code = s.doRequest(http.MethodDelete, productURL+"/"+product.ID, nil)
	s.Require().Equal(http.StatusOK, code)

	// then
	body, code := s.doRequest(http.MethodGet, saleURL+"/"+sale.ID, nil)
	s.Require().Equal(http.StatusOK, code)
	orphan := decodeInto[service.SaleDto](s, body)
	s.Nil(orphan.Product)
	s.Equal(product.ID, orphan.ProductID)

	_, code = s.doRequest(http.MethodDelete, saleURL+"/"+sale.ID, nil)
	s.Equal(http.StatusOK, code, "a sale of a removed product can still be deleted")
}

func (s *InventoryE2ESuite) TestConcurrentSales_E2E() {
	// given
	const stock, buyers, perSale = 10, 8, 2
	product := s.createProduct(productPayload{Name: "Nintendo Switch", Category: "console", Price: 1800000, Quantity: stock})

	// when
	var succeeded, rejected atomic.Int32
	g, _ := errgroup.WithContext(s.ctx)
	for range buyers {
		g.Go(func() error {
			_, code := s.recordSale(product.ID, perSale)
			switch code {
			case http.StatusCreated:
				succeeded.Add(1)
			case http.StatusConflict:
				rejected.Add(1)
			default:
				return fmt.Errorf("unexpected status %d", code)
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	// then
	s.Equal(int32(stock/perSale), succeeded.Load())
	s.Equal(int32(buyers-stock/perSale), rejected.Load())
	found, _ := s.findProduct(product.ID)
	s.Equal(int32(0), found.Quantity)
	s.Equal(int64(stock), s.statistics().TotalQuantity)
}

func (s *InventoryE2ESuite) TestHealth_E2E() {
	// when
	body, code := s.doRequest(http.MethodGet, "/healthz", nil)

	// then
	s.Equal(http.StatusOK, code)
	s.Contains(string(body), "ok")
}
