// internal/adapters/db/product_source.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/ports"
)

const productsTable = "products"

var productColumns = []string{
	"id", "name", "category", "price", "stock_quantity", "created_at",
}

// BatchQuerier is the subset of *Database the product source needs
type BatchQuerier interface {
	SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// CompiledQuery is a descriptor rendered into the page query and the
// matching count query. Both share the same filter predicates.
type CompiledQuery struct {
	Page  squirrel.SelectBuilder
	Count squirrel.SelectBuilder
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// CompileQuery turns a descriptor into SQL. Search is a case-insensitive
// substring match on name, category is exact, price bounds are inclusive and
// the in-stock filter requires stock_quantity > 0.
func CompileQuery(d domain.QueryDescriptor) (*CompiledQuery, error) {
	if !d.SortField.Valid() {
		return nil, fmt.Errorf("invalid sort field: %q", d.SortField)
	}

	direction := "ASC"
	if d.SortDirection == domain.SortDescending {
		direction = "DESC"
	}

	limit := d.Limit
	if limit == 0 {
		limit = domain.PageSize
	}

	page := applyFilters(psql.Select(productColumns...).From(productsTable), d).
		OrderBy(fmt.Sprintf("%s %s", d.SortField, direction)).
		Limit(limit).
		Offset(d.Offset)

	count := applyFilters(psql.Select("COUNT(*)").From(productsTable), d)

	return &CompiledQuery{Page: page, Count: count}, nil
}

func applyFilters(qb squirrel.SelectBuilder, d domain.QueryDescriptor) squirrel.SelectBuilder {
	if d.Search != "" {
		qb = qb.Where(squirrel.ILike{"name": "%" + escapeLike(d.Search) + "%"})
	}
	if d.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": d.Category})
	}
	if d.MinPrice != nil {
		qb = qb.Where(squirrel.GtOrEq{"price": *d.MinPrice})
	}
	if d.MaxPrice != nil {
		qb = qb.Where(squirrel.LtOrEq{"price": *d.MaxPrice})
	}
	if d.InStockOnly {
		qb = qb.Where(squirrel.Gt{"stock_quantity": 0})
	}
	return qb
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE metacharacters in user input match literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// productSource implements ports.ProductSource against Postgres
type productSource struct {
	db     BatchQuerier
	logger *slog.Logger
}

// NewProductSource creates a product source backed by db
func NewProductSource(db BatchQuerier, logger *slog.Logger) ports.ProductSource {
	return &productSource{
		db:     db,
		logger: logger.With(slog.String("repository", "products")),
	}
}

// FetchPage runs the page query and the count query in one batch so the
// records and the total are read in a single round trip.
func (s *productSource) FetchPage(ctx context.Context, d domain.QueryDescriptor) (*domain.PageResult, error) {
	compiled, err := CompileQuery(d)
	if err != nil {
		return nil, err
	}

	pageSQL, pageArgs, err := compiled.Page.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build page query: %w", err)
	}
	countSQL, countArgs, err := compiled.Count.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(pageSQL, pageArgs...)
	batch.Queue(countSQL, countArgs...)

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	var total pgtype.Int8
	if err := br.QueryRow().Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to close batch: %w", err)
	}

	result := &domain.PageResult{
		Records:  records,
		Page:     d.Page,
		PageSize: domain.PageSize,
	}
	if total.Valid {
		result.TotalCount = total.Int64
	}
	if result.Records == nil {
		result.Records = []domain.Product{}
	}

	s.logger.DebugContext(ctx, "products fetched",
		slog.String("query", d.Key()),
		slog.Int("records", len(result.Records)),
		slog.Int64("total", result.TotalCount))

	return result, nil
}

// DistinctCategories lists every non-empty category in ascending order
func (s *productSource) DistinctCategories(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("DISTINCT category").
		From(productsTable).
		Where(squirrel.NotEq{"category": nil}).
		Where("category <> ''").
		OrderBy("category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build categories query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}

	return categories, nil
}

// ProductCopyRow converts p into a row matching ProductColumns for CopyFrom
func ProductCopyRow(p domain.Product) []any {
	price := pgtype.Numeric{
		Int:   p.Price.Coefficient(),
		Exp:   p.Price.Exponent(),
		Valid: true,
	}
	return []any{p.ID, p.Name, p.Category, price, p.StockQuantity, p.CreatedAt}
}

// ProductColumns returns the products columns in scan and copy order
func ProductColumns() []string {
	return append([]string(nil), productColumns...)
}

// ProductsTable identifies the products relation for CopyFrom
var ProductsTable = pgx.Identifier{productsTable}

func scanProduct(row pgx.CollectableRow) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Category,
		&p.Price, &p.StockQuantity, &p.CreatedAt,
	)
	return p, err
}
