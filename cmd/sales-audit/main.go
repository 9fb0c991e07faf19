// Package main runs the sales audit consumer: it logs every sale event published by the inventory service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/gamevault/inventory/internal/audit"
	"github.com/gamevault/inventory/pkg/bootstrap"
	"github.com/gamevault/inventory/pkg/config/configloader"
	"github.com/gamevault/inventory/pkg/messaging"
	"github.com/gamevault/inventory/pkg/nats"
	"golang.org/x/sync/errgroup"
)

const serviceName = "audit"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run starts the JetStream consumer, the liveness probe and optionally the pprof server.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*audit.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	js, err := nats.OpenStream(ctx, natsConn, cfg.Subscriber.Stream, messaging.SalesSubjects)
	if err != nil {
		return fmt.Errorf("failed to open stream %s: %w", cfg.Subscriber.Stream, err)
	}
	defer natsConn.Close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Sales audit consumer started", "stream", cfg.Subscriber.Stream, "consumer", cfg.Subscriber.Consumer)
		ready := func() {
			if err := audit.MarkReady(cfg.Probes.ReadinessFileName); err != nil {
				logger.Error("failed to mark consumer ready", "error", err)
			}
		}
		err := audit.Start(gCtx, js, cfg.Subscriber, ready, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer failed", "error", err)
			return err
		}
		logger.Info("consumer stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		audit.KeepAlive(gCtx, cfg.Probes.LivenessFileName, cfg.Probes.LivenessInterval, logger)
		return nil
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr:              cfg.PProf.Addr,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
