// internal/core/ports/product_source.go
package ports

import (
	"context"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

// ProductSource is the read-only port to the remote products relation.
// Implementations must answer FetchPage with a single round trip that carries
// the filters, ordering, window and exact count together.
type ProductSource interface {
	FetchPage(ctx context.Context, desc domain.QueryDescriptor) (*domain.PageResult, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}
