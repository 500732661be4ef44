// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/catalog-browser/internal/adapters/db"
	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container with the products schema applied
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_catalog",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := db.DefaultConfig()
	dbConfig.Port = resource.GetPort("5432/tcp")
	dbConfig.User = "test"
	dbConfig.Password = "test"
	dbConfig.Database = "test_catalog"
	dbConfig.MaxConnections = 5
	dbConfig.MinConnections = 1
	dbConfig.EnableQueryLogging = testing.Verbose()

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		UseEmbedded: true,
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-catalog",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:              "localhost",
			Port:              "5432",
			User:              "test",
			Password:          "test",
			Name:              "test_catalog",
			SSLMode:           "disable",
			MaxConnections:    10,
			MinConnections:    2,
			UseEmbeddedSchema: true,
		},
		Redis: config.RedisConfig{
			Host:             "localhost",
			Port:             "6379",
			PoolSize:         10,
			CategoryCacheTTL: 10 * time.Minute,
		},
		Asynq: config.AsynqConfig{
			RedisAddr:            "localhost:6379",
			Concurrency:          1,
			Queues:               map[string]int{"default": 1},
			ShutdownTimeout:      time.Second,
			CategoryWarmInterval: 5 * time.Minute,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Catalog: config.CatalogConfig{
			APIURL:         "http://localhost:8080",
			APIKey:         "test-key",
			Debounce:       20 * time.Millisecond,
			RequestTimeout: 2 * time.Second,
		},
	}
}

// CreateTestProduct creates a test product
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	p := &domain.Product{
		ID:            uuid.New(),
		Name:          "Desk Lamp",
		Category:      "Lighting",
		Price:         decimal.RequireFromString("24.99"),
		StockQuantity: 12,
		CreatedAt:     time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
	}

	for _, override := range overrides {
		override(p)
	}

	return p
}

// CreateTestProducts creates count products spread across a few categories
// with increasing prices and every third product out of stock.
func CreateTestProducts(count int) []domain.Product {
	categories := []string{"Books", "Electronics", "Lighting", "Toys"}
	products := make([]domain.Product, count)

	for i := 0; i < count; i++ {
		products[i] = *CreateTestProduct(func(p *domain.Product) {
			p.Name = fmt.Sprintf("Product %02d", i+1)
			p.Category = categories[i%len(categories)]
			p.Price = decimal.NewFromInt(int64(10 + i*5))
			p.StockQuantity = i % 3
			p.CreatedAt = p.CreatedAt.Add(time.Duration(i) * time.Hour)
		})
	}

	return products
}

// TruncateProducts empties the products table
func TruncateProducts(t *testing.T, database *db.Database) {
	t.Helper()

	rows, err := database.Query(context.Background(), "TRUNCATE TABLE products")
	require.NoError(t, err, "Failed to truncate products")
	rows.Close()
	require.NoError(t, rows.Err())
}

// SeedProducts bulk-loads products into the test database
func SeedProducts(t *testing.T, database *db.Database, products []domain.Product) {
	t.Helper()

	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = db.ProductCopyRow(p)
	}

	n, err := database.CopyFrom(context.Background(),
		db.ProductsTable, db.ProductColumns(), pgx.CopyFromRows(rows))
	require.NoError(t, err, "Failed to seed products")
	require.Equal(t, int64(len(products)), n)
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")
	require.NoError(t, file.Close())

	return file.Name()
}
