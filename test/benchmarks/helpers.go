// test/benchmarks/helpers.go
package benchmarks

import (
	"context"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

// staticSource answers every query from memory
type staticSource struct {
	categories []string
}

func (s *staticSource) FetchPage(ctx context.Context, desc domain.QueryDescriptor) (*domain.PageResult, error) {
	return &domain.PageResult{
		Records:  []domain.Product{},
		Page:     desc.Page,
		PageSize: domain.PageSize,
	}, nil
}

func (s *staticSource) DistinctCategories(ctx context.Context) ([]string, error) {
	return s.categories, nil
}
