// internal/seed/loader.go
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/catalog-browser/internal/adapters/db"
	"github.com/ammerola/catalog-browser/internal/adapters/storage"
	"github.com/ammerola/catalog-browser/internal/core/domain"
)

// Transactor runs fn inside a database transaction
type Transactor interface {
	Transaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// DownloaderFunc opens an object store bucket for reading
type DownloaderFunc func(ctx context.Context, bucket string) (storage.Downloader, error)

// Options controls a seed run
type Options struct {
	// Truncate empties the products table before loading
	Truncate bool
}

// Report summarises a seed run
type Report struct {
	Source   string
	Loaded   int64
	Skipped  []RowError
	Duration time.Duration
}

// Loader bulk-loads fixture workbooks into the products table
type Loader struct {
	db       Transactor
	download DownloaderFunc
	logger   *slog.Logger
}

// NewLoader creates a loader. download may be nil when only local files are seeded.
func NewLoader(db Transactor, download DownloaderFunc, logger *slog.Logger) *Loader {
	return &Loader{
		db:       db,
		download: download,
		logger:   logger.With(slog.String("component", "seed")),
	}
}

// Run reads the workbook at source, a local path or an s3:// uri, and loads
// every valid row.
func (l *Loader) Run(ctx context.Context, source string, opts Options) (*Report, error) {
	start := time.Now()

	sheet, err := l.Parse(ctx, source)
	if err != nil {
		return nil, err
	}

	for _, skipped := range sheet.Skipped {
		l.logger.WarnContext(ctx, "skipping invalid row",
			slog.String("source", source),
			slog.Int("row", skipped.Row),
			slog.String("error", skipped.Err.Error()))
	}

	loaded, err := l.Load(ctx, sheet.Products, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Source:   source,
		Loaded:   loaded,
		Skipped:  sheet.Skipped,
		Duration: time.Since(start),
	}

	l.logger.InfoContext(ctx, "seed completed",
		slog.String("source", source),
		slog.Int64("loaded", report.Loaded),
		slog.Int("skipped", len(report.Skipped)),
		slog.Duration("duration", report.Duration))

	return report, nil
}

// Parse reads and validates the workbook at source without writing anything
func (l *Loader) Parse(ctx context.Context, source string) (*Sheet, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	sheet, err := ParseXLSX(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	return sheet, nil
}

// Load copies products in one transaction, optionally replacing the table contents
func (l *Loader) Load(ctx context.Context, products []domain.Product, opts Options) (int64, error) {
	var loaded int64

	err := l.db.Transaction(ctx, func(tx pgx.Tx) error {
		if opts.Truncate {
			if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+db.ProductsTable.Sanitize()); err != nil {
				return fmt.Errorf("failed to truncate products: %w", err)
			}
		}

		if len(products) == 0 {
			return nil
		}

		n, err := tx.CopyFrom(ctx, db.ProductsTable, db.ProductColumns(),
			pgx.CopyFromSlice(len(products), func(i int) ([]any, error) {
				return db.ProductCopyRow(products[i]), nil
			}))
		if err != nil {
			return fmt.Errorf("failed to copy products: %w", err)
		}
		loaded = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	return loaded, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, storage.S3Scheme) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		return data, nil
	}

	if l.download == nil {
		return nil, fmt.Errorf("s3 sources are not configured: %s", source)
	}

	bucket, key, err := storage.ParseS3URI(source)
	if err != nil {
		return nil, err
	}

	downloader, err := l.download(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucket, err)
	}

	return downloader.Download(ctx, key)
}
