// internal/core/ports/catalog_service.go
package ports

import (
	"context"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

// CatalogService defines the application service port for browsing products.
// This interface is implemented by the application service.
type CatalogService interface {
	// Fetch compiles state into one bounded query. Failures are returned as
	// *domain.FetchError.
	Fetch(ctx context.Context, state domain.QueryState) (*domain.PageResult, error)
	// Categories returns the distinct categories in ascending order. It never
	// fails; on error the list is empty.
	Categories(ctx context.Context) []string
}
