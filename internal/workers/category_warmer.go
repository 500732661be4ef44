// internal/workers/category_warmer.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// CategoryWarmer is the part of the catalog service that refreshes the
// cached category list
type CategoryWarmer interface {
	WarmCategories(ctx context.Context) (int, error)
}

// CategoryProcessor handles category warm tasks
type CategoryProcessor struct {
	warmer CategoryWarmer
	logger *slog.Logger
}

// NewCategoryProcessor creates a new category processor
func NewCategoryProcessor(warmer CategoryWarmer, logger *slog.Logger) *CategoryProcessor {
	return &CategoryProcessor{
		warmer: warmer,
		logger: logger.With(slog.String("processor", "categories")),
	}
}

// ProcessWarmCategories reloads the distinct categories into the cache
func (p *CategoryProcessor) ProcessWarmCategories(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "warming categories")

	count, err := p.warmer.WarmCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm categories: %w", err)
	}

	p.logger.InfoContext(ctx, "categories warmed successfully",
		slog.Int("count", count))

	return nil
}
