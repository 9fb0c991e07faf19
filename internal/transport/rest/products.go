package rest

import (
	"net/http"

	"github.com/gamevault/inventory/internal/service"
	"github.com/gamevault/inventory/internal/validation"
	"github.com/gamevault/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
)

// FindProducts lists products, optionally filtered by ?category= or ?minPrice=&maxPrice=.
func (h *Handler) FindProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	minPrice, ok := web.ParseOptionalGte(r, w, mLogger, "minPrice", 0)
	if !ok {
		return
	}
	maxPrice, ok := web.ParseOptionalGte(r, w, mLogger, "maxPrice", 0)
	if !ok {
		return
	}
	filter := service.ProductFilter{
		Category: r.URL.Query().Get("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}
	mLogger.DebugContext(r.Context(), "Received request to find products", "category", filter.Category)

	list, err := h.products.FindAll(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *Handler) FindProductByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	found, err := h.products.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "retrieve product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CreateProduct handles the creation of a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ProductCreateDto
	if !web.DecodeJSON(w, r, mLogger, &dto) {
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.respondServiceError(w, r, mLogger, err, "create product")
		return
	}

	created, err := h.products.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")
	var dto service.ProductCreateDto
	if !web.DecodeJSON(w, r, mLogger, &dto) {
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.respondServiceError(w, r, mLogger, err, "update product")
		return
	}

	updated, err := h.products.Update(r.Context(), id, dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "update product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProduct removes a product. Its sales are kept and read back with a null product.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	deleted, err := h.products.DeleteByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "delete product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", deleted.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, deleted)
}
