// Package audit consumes sale events from JetStream and writes them to the audit log.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gamevault/inventory/pkg/config"
	ctxlog "github.com/gamevault/inventory/pkg/logger"
	"github.com/gamevault/inventory/pkg/messaging"
	"github.com/gamevault/inventory/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

// Start creates the durable consumer and runs subscriberCfg.Workers fetch loops until ctx is done.
// ready is called once the consumer exists.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SalesConsumerConfig, ready func(), logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	if ready != nil {
		ready()
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles them one by one.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SalesConsumerConfig, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				time.Sleep(cfg.Interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, logger)
			}
			if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
				logger.Warn("batch ended with error", "error", err)
			}
		}
	}
}

// ackableMsg is the part of jetstream.Msg handleMessage uses.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Term() error
}

// handleMessage logs one sale event. Undecodable messages are terminated so they are not redelivered.
func handleMessage(ctx context.Context, msg ackableMsg, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	var sale events.Sale
	if err := json.Unmarshal(msg.Data(), &sale); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(sale.Carrier))
	ctx = ctxlog.AppendCtx(ctx,
		slog.String("sale_id", sale.SaleID.String()),
		slog.String("product_id", sale.ProductID.String()))
	action := "unknown sale event"
	switch msg.Subject() {
	case messaging.SalesRecordedSubject:
		action = "sale recorded"
	case messaging.SalesDeletedSubject:
		action = "sale deleted"
	}
	logger.InfoContext(ctx, action,
		slog.String("subject", msg.Subject()),
		slog.Int("quantity", int(sale.Quantity)),
		slog.Int64("unit_price", sale.UnitPrice),
		slog.Int64("total", sale.Total),
		slog.String("timestamp", sale.Timestamp.Format(time.RFC3339Nano)))

	if err := msg.Ack(); err != nil {
		logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}
