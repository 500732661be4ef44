// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeWarmCategories = "catalog:warm_categories"
	TypeSeedProducts   = "catalog:seed_products"
)

// QueueDefault is the queue catalog maintenance tasks run on
const QueueDefault = "default"

// SeedPayload asks the worker to load a fixture workbook
type SeedPayload struct {
	JobID    string `json:"job_id"`
	Source   string `json:"source"`
	Truncate bool   `json:"truncate"`
}

// NewWarmCategoriesTask builds the task that refreshes the cached category list.
// Duplicate warm tasks within the unique window are dropped by the queue.
func NewWarmCategoriesTask(unique time.Duration) *asynq.Task {
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(3)}
	if unique > 0 {
		opts = append(opts, asynq.Unique(unique))
	}
	return asynq.NewTask(TypeWarmCategories, nil, opts...)
}

// NewSeedTask builds a task that loads the workbook at payload.Source
func NewSeedTask(payload SeedPayload) (*asynq.Task, error) {
	if payload.Source == "" {
		return nil, fmt.Errorf("seed source is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeSeedProducts, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
	), nil
}
