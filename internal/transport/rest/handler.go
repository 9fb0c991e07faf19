// Package rest provides the HTTP handlers of the inventory API.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/service"
	"github.com/gamevault/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
)

// HealthFunc reports whether the service dependencies are reachable.
type HealthFunc func(ctx context.Context) error

type Handler struct {
	products service.ProductService
	sales    service.SaleService
	health   HealthFunc
	version  string
	logger   *slog.Logger
}

// NewHandler creates a new Handler. health may be nil.
func NewHandler(products service.ProductService, sales service.SaleService, health HealthFunc, version string, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		sales:    sales,
		health:   health,
		version:  version,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the inventory API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindProducts)
		r.Post("/", h.CreateProduct)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})

	r.Route("/api/v1/sales", func(r chi.Router) {
		r.Get("/", h.FindSales)
		r.Post("/", h.RecordSale)
		r.Get("/statistics", h.SalesStatistics)
		r.Get("/by-date", h.FindSalesByDate)
		r.Get("/by-product/{productId}", h.FindSalesByProduct)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindSaleByID)
			r.Delete("/", h.DeleteSale)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/", h.Info)
}

// HealthCheck answers 200 when the store is reachable and 503 otherwise.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			mLogger.WarnContext(r.Context(), "Health check failed", "error", err)
			web.RespondJSON(w, mLogger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Info describes the service and its entry points.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]any{
		"service": "inventory",
		"version": h.version,
		"endpoints": map[string]string{
			"products": "/api/v1/products",
			"sales":    "/api/v1/sales",
			"health":   "/healthz",
			"metrics":  "/metrics",
		},
	})
}

// respondServiceError maps a service failure to its HTTP status.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, action string) {
	if vErr, ok := inverrors.AsValidationError(err); ok {
		logger.WarnContext(r.Context(), "Validation errors occurred", "action", action, "errors", vErr.Violations)
		web.RespondValidation(w, logger, vErr.Violations)
		return
	}
	switch {
	case errors.Is(err, inverrors.ErrProductNotFound), errors.Is(err, inverrors.ErrSaleNotFound):
		logger.WarnContext(r.Context(), "Resource not found", "action", action, "error", err)
		web.RespondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, inverrors.ErrInsufficientStock):
		logger.WarnContext(r.Context(), "Insufficient stock", "action", action)
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", "action", action, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Failed to "+action)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", web.RequestID(r.Context()))
}
