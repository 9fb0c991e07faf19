// Package main loads the demo catalog and sales into a running inventory service over gRPC.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamevault/inventory/internal/seed"
	invgrpc "github.com/gamevault/inventory/internal/transport/grpc"
	"github.com/gamevault/inventory/pkg/bootstrap"
	"github.com/gamevault/inventory/pkg/client/grpc/interceptors"
	"github.com/gamevault/inventory/pkg/config/configloader"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "seed"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("seed failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*seed.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	conn, err := grpc.NewClient(cfg.Inventory.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(
			interceptors.UnaryClientTimeoutInterceptor(cfg.Inventory.Timeout),
			interceptors.NewRetryInterceptor(cfg.Inventory.Retry),
			interceptors.NewCircuitBreaker(cfg.Inventory.BreakerName(), cfg.Inventory.CircuitBreaker),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	defer func(conn *grpc.ClientConn) {
		if err := conn.Close(); err != nil {
			logger.Error("Failed to close gRPC client connection", slog.String("error", err.Error()))
		}
	}(conn)

	res, err := seed.Run(ctx, invgrpc.NewClient(conn), logger)
	if err != nil {
		return err
	}
	logger.Info("Inventory seeded", "products", len(res.ProductIDs), "sales", len(res.SaleIDs))
	return nil
}
