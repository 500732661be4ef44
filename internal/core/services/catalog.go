// internal/core/services/catalog.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/ports"
)

// CategoriesCacheKey is where the distinct category list is cached
const CategoriesCacheKey = "catalog:categories"

// DefaultCategoryTTL is used when no TTL is configured
const DefaultCategoryTTL = 10 * time.Minute

// CatalogService compiles query states into product fetches and enumerates
// categories
type CatalogService struct {
	source      ports.ProductSource
	cache       ports.CacheRepository
	categoryTTL time.Duration
	logger      *slog.Logger
}

// Statically assert that *CatalogService implements the CatalogService interface.
var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new catalog service. cache may be nil, in which
// case categories are read from the source every time.
func NewCatalogService(source ports.ProductSource, cache ports.CacheRepository, categoryTTL time.Duration, logger *slog.Logger) *CatalogService {
	if categoryTTL <= 0 {
		categoryTTL = DefaultCategoryTTL
	}
	return &CatalogService{
		source:      source,
		cache:       cache,
		categoryTTL: categoryTTL,
		logger:      logger.With(slog.String("service", "catalog")),
	}
}

// Fetch compiles state and runs it against the source. Any failure is
// returned as *domain.FetchError; the cause is logged and never retried.
func (s *CatalogService) Fetch(ctx context.Context, state domain.QueryState) (*domain.PageResult, error) {
	desc := state.Descriptor()

	result, err := s.source.FetchPage(ctx, desc)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.DebugContext(ctx, "product fetch abandoned",
				slog.String("query", desc.Key()),
				slog.String("error", err.Error()))
		} else {
			s.logger.ErrorContext(ctx, "product fetch failed",
				slog.String("query", desc.Key()),
				slog.String("error", err.Error()))
		}
		return nil, domain.NewFetchError(err)
	}

	if result == nil {
		result = &domain.PageResult{}
	}
	if result.Records == nil {
		result.Records = []domain.Product{}
	}
	if result.TotalCount < 0 {
		result.TotalCount = 0
	}
	result.Page = desc.Page
	result.PageSize = domain.PageSize

	return result, nil
}

// Categories returns the distinct categories in ascending order. Failures are
// logged and yield an empty list.
func (s *CatalogService) Categories(ctx context.Context) []string {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "category enumeration failed",
			slog.String("error", err.Error()))
		return []string{}
	}
	return categories
}

// WarmCategories reads the categories from the source and overwrites the
// cached list. It returns the number of categories written.
func (s *CatalogService) WarmCategories(ctx context.Context) (int, error) {
	categories, err := s.fetchCategories(ctx)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, CategoriesCacheKey, categories, s.categoryTTL); err != nil {
			return 0, fmt.Errorf("failed to cache categories: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "categories warmed",
		slog.Int("count", len(categories)))

	return len(categories), nil
}

func (s *CatalogService) loadCategories(ctx context.Context) ([]string, error) {
	if s.cache == nil {
		return s.fetchCategories(ctx)
	}

	var categories []string
	err := s.cache.GetOrSet(ctx, CategoriesCacheKey, &categories, func() (interface{}, error) {
		return s.fetchCategories(ctx)
	}, s.categoryTTL)
	if err == nil {
		if categories == nil {
			categories = []string{}
		}
		return categories, nil
	}
	if errors.Is(err, domain.ErrCategoryFetch) {
		return nil, err
	}

	// Cache unavailable; the source is still authoritative.
	s.logger.WarnContext(ctx, "category cache unavailable",
		slog.String("error", err.Error()))
	return s.fetchCategories(ctx)
}

func (s *CatalogService) fetchCategories(ctx context.Context) ([]string, error) {
	categories, err := s.source.DistinctCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCategoryFetch, err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}
