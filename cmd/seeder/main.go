// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"

	"github.com/ammerola/catalog-browser/internal/adapters/db"
	"github.com/ammerola/catalog-browser/internal/adapters/storage"
	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/pkg/config"
	"github.com/ammerola/catalog-browser/internal/pkg/logger"
	"github.com/ammerola/catalog-browser/internal/seed"
	"github.com/ammerola/catalog-browser/internal/workers"
)

var sampleCategories = map[string][]string{
	"Books":       {"Atlas", "Cookbook", "Field Guide", "Novel", "Poetry Collection"},
	"Electronics": {"Bluetooth Speaker", "Headphones", "Power Bank", "USB Hub", "Webcam"},
	"Kitchen":     {"Chef Knife", "Dutch Oven", "Kettle", "Pour Over Set", "Skillet"},
	"Lighting":    {"Desk Lamp", "Floor Lamp", "Lantern", "Pendant Light", "String Lights"},
	"Toys":        {"Building Blocks", "Kite", "Puzzle", "Train Set", "Yo-yo"},
}

var adjectives = []string{"Classic", "Compact", "Deluxe", "Modern", "Rustic", "Travel", "Vintage"}

func main() {
	var (
		source   = flag.StringP("source", "s", "", "Fixture workbook to load: a local path or s3://bucket/key")
		truncate = flag.Bool("truncate", false, "Empty the products table before loading")
		dryRun   = flag.Bool("dry-run", false, "Parse the workbook and report without writing")
		enqueue  = flag.Bool("enqueue", false, "Hand the load to the worker instead of running it here")
		generate = flag.IntP("generate", "g", 0, "Write a sample workbook with this many products and exit")
		out      = flag.StringP("out", "o", "products.xlsx", "Output path for --generate")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	ctx := context.Background()

	if *generate > 0 {
		if err := writeSample(*generate, *out); err != nil {
			slogger.Error("failed to generate sample", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slogger.Info("sample workbook written",
			slog.String("path", *out),
			slog.Int("products", *generate))
		return
	}

	if *source == "" && flag.NArg() > 0 {
		*source = flag.Arg(0)
	}
	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: seeder [--truncate] [--dry-run] [--enqueue] <path|s3://bucket/key>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *enqueue {
		if err := enqueueSeed(cfg, *source, *truncate, slogger); err != nil {
			slogger.Error("failed to enqueue seed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if *dryRun {
		loader := seed.NewLoader(nil, s3Downloader(cfg, slogger), slogger)
		if err := preview(ctx, loader, *source, slogger); err != nil {
			slogger.Error("dry run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

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
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		UseEmbedded: true,
	}, slogger, 3); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loader := seed.NewLoader(database, s3Downloader(cfg, slogger), slogger)
	report, err := loader.Run(ctx, *source, seed.Options{Truncate: *truncate})
	if err != nil {
		slogger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("loaded %d products from %s (%d rows skipped) in %s\n",
		report.Loaded, report.Source, len(report.Skipped), report.Duration.Round(time.Millisecond))
}

// preview parses the workbook and prints what a real run would load
func preview(ctx context.Context, loader *seed.Loader, source string, logger *slog.Logger) error {
	sheet, err := loader.Parse(ctx, source)
	if err != nil {
		return err
	}

	for _, skipped := range sheet.Skipped {
		fmt.Printf("skip  %s\n", skipped.Error())
	}
	categories := map[string]int{}
	for _, p := range sheet.Products {
		categories[p.Category]++
	}

	logger.Info("dry run complete",
		slog.String("source", source),
		slog.Int("products", len(sheet.Products)),
		slog.Int("skipped", len(sheet.Skipped)),
		slog.Any("categories", categories))
	return nil
}

func enqueueSeed(cfg *config.Config, source string, truncate bool, logger *slog.Logger) error {
	task, err := workers.NewSeedTask(workers.SeedPayload{
		JobID:    uuid.New().String(),
		Source:   source,
		Truncate: truncate,
	})
	if err != nil {
		return err
	}

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	})
	defer client.Close()

	info, err := client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.Info("seed task enqueued",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
		slog.String("source", source))
	return nil
}

func s3Downloader(cfg *config.Config, logger *slog.Logger) seed.DownloaderFunc {
	return func(ctx context.Context, bucket string) (storage.Downloader, error) {
		return storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, logger)
	}
}

func writeSample(n int, path string) error {
	data, err := seed.EncodeXLSX(sampleProducts(n))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// sampleProducts makes n plausible products. Roughly one in five is out of stock.
func sampleProducts(n int) []domain.Product {
	categories := make([]string, 0, len(sampleCategories))
	for c := range sampleCategories {
		categories = append(categories, c)
	}

	start := time.Now().UTC().AddDate(-1, 0, 0)
	products := make([]domain.Product, n)
	for i := range products {
		category := categories[rand.IntN(len(categories))]
		items := sampleCategories[category]

		stock := rand.IntN(40)
		if rand.IntN(5) == 0 {
			stock = 0
		}

		products[i] = domain.Product{
			ID:            uuid.New(),
			Name:          fmt.Sprintf("%s %s", adjectives[rand.IntN(len(adjectives))], items[rand.IntN(len(items))]),
			Category:      category,
			Price:         decimal.New(int64(199+rand.IntN(49800)), -2),
			StockQuantity: stock,
			CreatedAt:     start.Add(time.Duration(rand.Int64N(int64(365 * 24 * time.Hour)))).Truncate(time.Second),
		}
	}
	return products
}
