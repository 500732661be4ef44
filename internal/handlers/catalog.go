// internal/handlers/catalog.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/ports"
)

// CatalogHandler serves the read-only product browsing API
type CatalogHandler struct {
	service ports.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service ports.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "catalog")),
	}
}

// ProductsResponse is one page of products plus the exact match count
type ProductsResponse struct {
	Records    []domain.Product `json:"records"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// CategoriesResponse lists the distinct categories in ascending order
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := domain.QueryStateFromValues(r.URL.Query())

	result, err := h.service.Fetch(ctx, state)
	if err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			respondError(w, h.logger, http.StatusServiceUnavailable, fetchErr.Error())
			return
		}
		h.logger.ErrorContext(ctx, "failed to list products",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, domain.FetchErrorMessage)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, ProductsResponse{
		Records:    result.Records,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages(),
	})
}

// Categories handles GET /api/v1/products/categories. It always answers 200;
// an enumeration failure yields an empty list.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := h.service.Categories(r.Context())
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, h.logger, http.StatusOK, CategoriesResponse{Categories: categories})
}
