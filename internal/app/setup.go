// Package app contains the application setup for the inventory service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gamevault/inventory/internal/config"
	"github.com/gamevault/inventory/internal/service"
	"github.com/gamevault/inventory/internal/store"
	grpcImpl "github.com/gamevault/inventory/internal/transport/grpc"
	"github.com/gamevault/inventory/internal/transport/rest"
	"github.com/gamevault/inventory/pkg/bootstrap"
	pkgconfig "github.com/gamevault/inventory/pkg/config"
	"github.com/gamevault/inventory/pkg/messaging"
	"github.com/gamevault/inventory/pkg/server"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Version is reported by the service info endpoint.
const Version = "1.0.0"

type Dependencies struct {
	ProductService service.ProductService
	SaleService    service.SaleService
	Health         rest.HealthFunc
	Logger         *slog.Logger
}

// Options tunes SetupDependencies. The zero value gives a compensating coordinator
// with events dropped and no health probe.
type Options struct {
	Transactional bool
	Publisher     messaging.Publisher
	Health        rest.HealthFunc
}

// SetupDependencies wires the services over st. The transactional path is used when
// requested and st supports transactions.
func SetupDependencies(st store.Store, logger *slog.Logger, opts Options) *Dependencies {
	var saleOpts []service.SaleOption
	if tx, ok := st.(store.Transactor); ok && opts.Transactional {
		saleOpts = append(saleOpts, service.WithTransactor(tx))
	}
	return &Dependencies{
		ProductService: service.NewCatalogService(st),
		SaleService:    service.NewSaleCoordinator(st, st, opts.Publisher, logger, saleOpts...),
		Health:         opts.Health,
		Logger:         logger,
	}
}

// SetupStore opens the store selected by cfg. The returned close function releases it.
func SetupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, rest.HealthFunc, func(), error) {
	if cfg.Storage.Driver != pkgconfig.StoragePostgres {
		logger.Info("Using in-memory store")
		return store.NewInMemoryStore(), nil, func() {}, nil
	}

	if cfg.Database.Migrate {
		if err := store.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("Database migrations applied")
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("Successfully connected to the database!")
	return store.NewPgStore(dbPool), dbPool.Ping, dbPool.Close, nil
}

// SetupHttpHandler initializes the router and routes of the inventory API.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return server.Instrument(mux, "inventory-http")
}

// wireRoutes sets up the HTTP routes for the inventory application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.ProductService, deps.SaleService, deps.Health, Version, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the inventory application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer initializes the gRPC server for the inventory application.
// The inventory service is reported as serving on the returned health server.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) (*grpc.Server, *health.Server) {
	inventoryRegisterFunc := func(s *grpc.Server) {
		grpcImpl.RegisterInventoryServer(s, grpcImpl.NewServer(deps.ProductService, deps.SaleService, deps.Logger))
	}
	grpcServer, healthServer := server.NewGRPCServer(reflectionEnabled, server.ObservedServerOptions(deps.Logger), inventoryRegisterFunc)
	healthServer.SetServingStatus(grpcImpl.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return grpcServer, healthServer
}
