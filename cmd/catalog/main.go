// cmd/catalog/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ammerola/catalog-browser/internal/adapters/api"
	"github.com/ammerola/catalog-browser/internal/adapters/db"
	"github.com/ammerola/catalog-browser/internal/core/ports"
	"github.com/ammerola/catalog-browser/internal/core/services"
	"github.com/ammerola/catalog-browser/internal/core/session"
	"github.com/ammerola/catalog-browser/internal/pkg/config"
	"github.com/ammerola/catalog-browser/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		apiURL   = flag.String("api-url", "", "Catalog API base URL (default from CATALOG_API_URL)")
		apiKey   = flag.String("api-key", "", "Public API key (default from CATALOG_API_KEY)")
		direct   = flag.Bool("direct", false, "Query Postgres directly instead of the HTTP API")
		debounce = flag.Duration("debounce", 0, "Quiet period for search and price input (default from CATALOG_DEBOUNCE)")
		timeout  = flag.Duration("timeout", 0, "Per-request timeout (default from CATALOG_REQUEST_TIMEOUT)")
		logLevel = flag.String("log-level", "warn", "Log level written to stderr")
	)
	flag.Parse()

	// Keep the terminal for the browser; logs go to stderr
	slogger := logger.NewLogger(&logger.LogConfig{
		Level:  *logLevel,
		Format: "text",
		Output: os.Stderr,
	})
	slog.SetDefault(slogger)

	cfg, err := config.Load(slogger)
	if err != nil {
		return err
	}
	if *apiURL != "" {
		cfg.Catalog.APIURL = *apiURL
	}
	if *apiKey != "" {
		cfg.Catalog.APIKey = *apiKey
	}
	if *debounce > 0 {
		cfg.Catalog.Debounce = *debounce
	}
	if *timeout > 0 {
		cfg.Catalog.RequestTimeout = *timeout
	}

	ctx := context.Background()

	var source ports.ProductSource
	if *direct {
		database, err := db.NewDatabase(ctx, &db.Config{
			Host:           cfg.Database.Host,
			Port:           cfg.Database.Port,
			User:           cfg.Database.User,
			Password:       cfg.Database.Password,
			Database:       cfg.Database.Name,
			SSLMode:        cfg.Database.SSLMode,
			MaxConnections: 2,
			MinConnections: 1,
			ConnectTimeout: cfg.Database.ConnectTimeout,
		}, slogger)
		if err != nil {
			return err
		}
		defer database.Close()
		source = db.NewProductSource(database, slogger)
	} else {
		client, err := api.NewClient(cfg.Catalog.APIURL, cfg.Catalog.APIKey, cfg.Catalog.RequestTimeout, nil, slogger)
		if err != nil {
			return err
		}
		source = client
	}

	service := services.NewCatalogService(source, nil, 0, slogger)

	sess := session.New(service, session.Options{
		Quiet:        cfg.Catalog.Debounce,
		FetchTimeout: cfg.Catalog.RequestTimeout,
		Logger:       slogger,
	})
	defer sess.Close()
	sess.Start()

	repl := &REPL{
		session: sess,
		out:     os.Stdout,
		settle:  cfg.Catalog.Debounce + cfg.Catalog.RequestTimeout + time.Second,
	}
	return repl.Run()
}
