// internal/pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig is returned when a required value is absent or a placeholder
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Asynq
	Asynq AsynqConfig

	// AWS
	AWS AWSConfig

	// Security
	Security SecurityConfig

	// Server
	Server ServerConfig

	// Catalog client
	Catalog CatalogConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	MigrationPath      string
	UseEmbeddedSchema  bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host             string
	Port             string
	Password         string
	DB               int
	MaxRetries       int
	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	PoolSize         int
	MinIdleConns     int
	PoolTimeout      time.Duration
	CategoryCacheTTL time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	Concurrency          int
	Queues               map[string]int // queue name -> priority
	StrictPriority       bool
	RetryMax             int
	ShutdownTimeout      time.Duration
	CategoryWarmInterval time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SecretName      string // Secrets Manager entry; empty disables it
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
}

// CatalogConfig holds the connection parameters of the catalog browser.
// APIURL and APIKey are opaque to the rest of the program.
type CatalogConfig struct {
	APIURL         string
	APIKey         string
	Debounce       time.Duration
	RequestTimeout time.Duration
}

// Load loads configuration from environment variables
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	cfg := build(newEnvReader(), env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.IsProduction() {
		if err := (&ProductionValidator{}).Validate(cfg); err != nil {
			return nil, fmt.Errorf("production validation failed: %w", err)
		}
	}

	return cfg, nil
}

func build(r *envReader, env string) *Config {
	redisHost := r.String("REDIS_HOST", "localhost")
	redisPort := r.String("REDIS_PORT", "6379")

	return &Config{
		App: AppConfig{
			Name:        r.String("APP_NAME", "catalog-browser"),
			Environment: env,
			Version:     r.String("APP_VERSION", "dev"),
			LogLevel:    r.String("LOG_LEVEL", "info"),
			LogFormat:   r.String("LOG_FORMAT", "json"),
			Debug:       r.Bool("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               r.String("DB_HOST", "localhost"),
			Port:               r.String("DB_PORT", "5432"),
			User:               r.String("DB_USER", "catalog"),
			Password:           r.String("DB_PASSWORD", "catalog_dev"),
			Name:               r.String("DB_NAME", "catalog"),
			SSLMode:            r.String("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(r.Int("DB_MAX_CONNECTIONS", 20)),
			MinConnections:     int32(r.Int("DB_MIN_CONNECTIONS", 2)),
			MaxConnLifetime:    r.Duration("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    r.Duration("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  r.Duration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     r.Duration("DB_CONNECT_TIMEOUT", 10*time.Second),
			EnableQueryLogging: r.Bool("DB_QUERY_LOGGING", false),
			MigrationPath:      r.String("DB_MIGRATION_PATH", ""),
			UseEmbeddedSchema:  r.String("DB_MIGRATION_PATH", "") == "",
		},
		Redis: RedisConfig{
			Host:             redisHost,
			Port:             redisPort,
			Password:         r.String("REDIS_PASSWORD", ""),
			DB:               r.Int("REDIS_DB", 0),
			MaxRetries:       r.Int("REDIS_MAX_RETRIES", 3),
			DialTimeout:      r.Duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:      r.Duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:     r.Duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:         r.Int("REDIS_POOL_SIZE", 10),
			MinIdleConns:     r.Int("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:      r.Duration("REDIS_POOL_TIMEOUT", 4*time.Second),
			CategoryCacheTTL: r.Duration("CATEGORY_CACHE_TTL", 10*time.Minute),
		},
		Asynq: AsynqConfig{
			RedisAddr:            fmt.Sprintf("%s:%s", redisHost, redisPort),
			RedisPassword:        r.String("REDIS_PASSWORD", ""),
			RedisDB:              r.Int("ASYNQ_REDIS_DB", 0),
			Concurrency:          r.Int("ASYNQ_CONCURRENCY", 2),
			Queues:               parseQueues(r.String("ASYNQ_QUEUES", "default:1")),
			StrictPriority:       r.Bool("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:             r.Int("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout:      r.Duration("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			CategoryWarmInterval: r.Duration("CATEGORY_WARM_INTERVAL", 5*time.Minute),
		},
		AWS: AWSConfig{
			Region:          r.String("AWS_REGION", "us-east-1"),
			AccessKeyID:     r.String("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: r.String("AWS_SECRET_ACCESS_KEY", ""),
			SecretName:      r.String("AWS_SECRET_NAME", ""),
			S3Bucket:        r.String("AWS_S3_BUCKET", "catalog-fixtures"),
			S3Endpoint:      r.String("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    r.Bool("AWS_S3_PATH_STYLE", env == "development"),
		},
		Security: SecurityConfig{
			RateLimitRequests: r.Int("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: r.Duration("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    r.Slice("ALLOWED_ORIGINS", []string{"*"}),
			SecureHeaders:     r.Bool("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   r.String("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Server: ServerConfig{
			Host:            r.String("SERVER_HOST", "0.0.0.0"),
			Port:            r.String("SERVER_PORT", "8080"),
			ReadTimeout:     r.Duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    r.Duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     r.Duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  r.Int("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			GracefulTimeout: r.Duration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
		},
		Catalog: CatalogConfig{
			APIURL:         r.String("CATALOG_API_URL", "http://localhost:8080"),
			APIKey:         r.String("CATALOG_API_KEY", ""),
			Debounce:       r.Duration("CATALOG_DEBOUNCE", 400*time.Millisecond),
			RequestTimeout: r.Duration("CATALOG_REQUEST_TIMEOUT", 10*time.Second),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validateRequiredFields(c); err != nil {
		return err
	}

	if c.Database.MaxConnections < c.Database.MinConnections {
		return fmt.Errorf("max connections must be >= min connections")
	}
	if c.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis pool size must be positive")
	}
	if c.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}
	if c.Catalog.Debounce <= 0 {
		return fmt.Errorf("catalog debounce must be positive")
	}
	if c.Asynq.CategoryWarmInterval < time.Minute {
		return fmt.Errorf("category warm interval must be at least 1m")
	}

	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port for the Redis server
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// envReader resolves settings through a private viper instance bound to the
// process environment.
type envReader struct {
	v *viper.Viper
}

func newEnvReader() *envReader {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return &envReader{v: v}
}

func (r *envReader) String(key, defaultValue string) string {
	if value := strings.TrimSpace(r.v.GetString(key)); value != "" {
		return value
	}
	return defaultValue
}

func (r *envReader) Bool(key string, defaultValue bool) bool {
	if value := r.v.GetString(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func (r *envReader) Int(key string, defaultValue int) int {
	if value := r.v.GetString(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func (r *envReader) Duration(key string, defaultValue time.Duration) time.Duration {
	if value := r.v.GetString(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func (r *envReader) Slice(key string, defaultValue []string) []string {
	if value := r.v.GetString(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	pairs := strings.Split(queuesStr, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[0])
			priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err == nil {
				queues[name] = priority
			}
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
