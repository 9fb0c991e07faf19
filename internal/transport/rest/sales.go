package rest

import (
	"net/http"
	"time"

	inverrors "github.com/gamevault/inventory/internal/errors"
	"github.com/gamevault/inventory/internal/service"
	"github.com/gamevault/inventory/internal/validation"
	"github.com/gamevault/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
)

const dateOnly = "2006-01-02"

func (h *Handler) FindSales(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.sales.FindAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "fetch sales")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// RecordSale sells quantity units of product_id.
// Responds 409 when the stock is insufficient.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.SaleCreateDto
	if !web.DecodeJSON(w, r, mLogger, &dto) {
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.respondServiceError(w, r, mLogger, err, "record sale")
		return
	}

	sale, err := h.sales.RecordSale(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "record sale")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale recorded successfully", "ID", sale.ID, "ProductID", sale.ProductID, "Total", sale.Total)
	web.RespondJSON(w, mLogger, http.StatusCreated, sale)
}

func (h *Handler) FindSaleByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	found, err := h.sales.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "retrieve sale")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// DeleteSale removes a sale and gives its quantity back to the product.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	deleted, err := h.sales.DeleteSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "delete sale")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale deleted successfully", "ID", deleted.ID, "RestoredQuantity", deleted.Quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, deleted)
}

func (h *Handler) SalesStatistics(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	stats, err := h.sales.Statistics(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "compute sales statistics")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, stats)
}

// FindSalesByDate lists sales between ?from= and ?to=, both required and inclusive.
// A date-only to covers the whole day.
func (h *Handler) FindSalesByDate(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var violations []inverrors.Violation
	from, ok := parseTime(r.URL.Query().Get("from"), false)
	if !ok {
		violations = append(violations, inverrors.Violation{Field: "from", Rule: "datetime", Message: "from must be an RFC3339 timestamp or a YYYY-MM-DD date"})
	}
	to, ok := parseTime(r.URL.Query().Get("to"), true)
	if !ok {
		violations = append(violations, inverrors.Violation{Field: "to", Rule: "datetime", Message: "to must be an RFC3339 timestamp or a YYYY-MM-DD date"})
	}
	if len(violations) > 0 {
		h.respondServiceError(w, r, mLogger, inverrors.NewValidationError(violations...), "fetch sales by date")
		return
	}

	list, err := h.sales.FindByDateRange(r.Context(), from, to)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "fetch sales by date")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *Handler) FindSalesByProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.sales.FindByProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "fetch sales by product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func parseTime(raw string, endOfDay bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
