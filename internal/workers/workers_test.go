package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/catalog-browser/internal/adapters/redis_adapter"
	"github.com/ammerola/catalog-browser/internal/core/services"
	"github.com/ammerola/catalog-browser/internal/seed"
	"github.com/ammerola/catalog-browser/internal/workers"
	"github.com/ammerola/catalog-browser/test/helpers"
	"github.com/ammerola/catalog-browser/test/mocks"
)

type fakeWarmer struct {
	count int
	err   error
	calls int
}

func (f *fakeWarmer) WarmCategories(ctx context.Context) (int, error) {
	f.calls++
	return f.count, f.err
}

type fakeRunner struct {
	report  *seed.Report
	err     error
	sources []string
	opts    []seed.Options
}

func (f *fakeRunner) Run(ctx context.Context, source string, opts seed.Options) (*seed.Report, error) {
	f.sources = append(f.sources, source)
	f.opts = append(f.opts, opts)
	return f.report, f.err
}

func TestCategoryProcessor_WarmsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())

	source := mocks.NewMockProductSource(ctrl)
	source.EXPECT().
		DistinctCategories(gomock.Any()).
		Return([]string{"Books", "Toys"}, nil)

	service := services.NewCatalogService(source, cache, 5*time.Minute, helpers.TestLogger())
	processor := workers.NewCategoryProcessor(service, helpers.TestLogger())

	err := processor.ProcessWarmCategories(context.Background(), workers.NewWarmCategoriesTask(0))
	require.NoError(t, err)

	var cached []string
	require.NoError(t, cache.Get(context.Background(), services.CategoriesCacheKey, &cached))
	assert.Equal(t, []string{"Books", "Toys"}, cached)
	assert.Equal(t, 5*time.Minute, tr.Server.TTL(services.CategoriesCacheKey))
}

func TestCategoryProcessor_Error(t *testing.T) {
	warmer := &fakeWarmer{err: errors.New("database unavailable")}
	processor := workers.NewCategoryProcessor(warmer, helpers.TestLogger())

	err := processor.ProcessWarmCategories(context.Background(), workers.NewWarmCategoriesTask(time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to warm categories")
	assert.Equal(t, 1, warmer.calls)
}

func TestNewWarmCategoriesTask(t *testing.T) {
	task := workers.NewWarmCategoriesTask(time.Minute)
	assert.Equal(t, workers.TypeWarmCategories, task.Type())
	assert.Empty(t, task.Payload())
}

func TestNewSeedTask(t *testing.T) {
	task, err := workers.NewSeedTask(workers.SeedPayload{JobID: "job-1", Source: "s3://fixtures/p.xlsx", Truncate: true})
	require.NoError(t, err)
	assert.Equal(t, workers.TypeSeedProducts, task.Type())

	var payload workers.SeedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "s3://fixtures/p.xlsx", payload.Source)
	assert.True(t, payload.Truncate)

	_, err = workers.NewSeedTask(workers.SeedPayload{})
	require.Error(t, err)
}

func TestSeedProcessor_ProcessSeed(t *testing.T) {
	tests := []struct {
		name          string
		payload       []byte
		runner        *fakeRunner
		warmer        *fakeWarmer
		expectedError bool
		skipRetry     bool
		errorContains string
		wantWarm      int
	}{
		{
			name:     "loads_and_refreshes_categories",
			payload:  []byte(`{"job_id":"j1","source":"fixtures/products.xlsx","truncate":true}`),
			runner:   &fakeRunner{report: &seed.Report{Loaded: 12}},
			warmer:   &fakeWarmer{count: 4},
			wantWarm: 1,
		},
		{
			name:     "warm_failure_does_not_fail_task",
			payload:  []byte(`{"job_id":"j2","source":"fixtures/products.xlsx"}`),
			runner:   &fakeRunner{report: &seed.Report{Loaded: 1}},
			warmer:   &fakeWarmer{err: errors.New("redis down")},
			wantWarm: 1,
		},
		{
			name:          "runner_failure",
			payload:       []byte(`{"job_id":"j3","source":"fixtures/missing.xlsx"}`),
			runner:        &fakeRunner{err: errors.New("no such file")},
			warmer:        &fakeWarmer{},
			expectedError: true,
			errorContains: "failed to seed products",
		},
		{
			name:          "malformed_payload",
			payload:       []byte(`{`),
			runner:        &fakeRunner{},
			warmer:        &fakeWarmer{},
			expectedError: true,
			skipRetry:     true,
			errorContains: "failed to unmarshal payload",
		},
		{
			name:          "missing_source",
			payload:       []byte(`{"job_id":"j4"}`),
			runner:        &fakeRunner{},
			warmer:        &fakeWarmer{},
			expectedError: true,
			skipRetry:     true,
			errorContains: "seed source is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := workers.NewSeedProcessor(tt.runner, tt.warmer, helpers.TestLogger())

			task := asynq.NewTask(workers.TypeSeedProducts, tt.payload)
			err := processor.ProcessSeed(context.Background(), task)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
			} else {
				require.NoError(t, err)
				require.Len(t, tt.runner.sources, 1)
				assert.Equal(t, "fixtures/products.xlsx", tt.runner.sources[0])
			}
			assert.Equal(t, tt.wantWarm, tt.warmer.calls)
		})
	}

	t.Run("passes_truncate_option", func(t *testing.T) {
		runner := &fakeRunner{report: &seed.Report{}}
		processor := workers.NewSeedProcessor(runner, nil, helpers.TestLogger())

		err := processor.ProcessSeed(context.Background(),
			asynq.NewTask(workers.TypeSeedProducts, []byte(`{"source":"a.xlsx","truncate":true}`)))
		require.NoError(t, err)
		assert.Equal(t, []seed.Options{{Truncate: true}}, runner.opts)
	})
}
