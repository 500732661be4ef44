// internal/workers/seed_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/catalog-browser/internal/seed"
)

// SeedRunner loads a fixture workbook into the products table
type SeedRunner interface {
	Run(ctx context.Context, source string, opts seed.Options) (*seed.Report, error)
}

// SeedProcessor handles fixture import tasks
type SeedProcessor struct {
	runner SeedRunner
	warmer CategoryWarmer
	logger *slog.Logger
}

// NewSeedProcessor creates a new seed processor. warmer may be nil.
func NewSeedProcessor(runner SeedRunner, warmer CategoryWarmer, logger *slog.Logger) *SeedProcessor {
	return &SeedProcessor{
		runner: runner,
		warmer: warmer,
		logger: logger.With(slog.String("processor", "seed")),
	}
}

// ProcessSeed imports the workbook named in the payload, then refreshes the
// category cache so browsers see new categories without waiting for the TTL.
func (p *SeedProcessor) ProcessSeed(ctx context.Context, t *asynq.Task) error {
	var payload SeedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Source == "" {
		return fmt.Errorf("seed source is required: %w", asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "processing seed file",
		slog.String("job_id", payload.JobID),
		slog.String("source", payload.Source),
		slog.Bool("truncate", payload.Truncate))

	report, err := p.runner.Run(ctx, payload.Source, seed.Options{Truncate: payload.Truncate})
	if err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if p.warmer != nil {
		if _, err := p.warmer.WarmCategories(ctx); err != nil {
			p.logger.WarnContext(ctx, "failed to refresh categories after seed",
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "seed processing completed",
		slog.String("job_id", payload.JobID),
		slog.Int64("items_loaded", report.Loaded),
		slog.Int("rows_skipped", len(report.Skipped)))

	return nil
}
