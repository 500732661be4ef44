// internal/adapters/api/client.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/ports"
)

const (
	productsPath   = "/api/v1/products"
	categoriesPath = "/api/v1/products/categories"

	// APIKeyHeader carries the public client key on every request
	APIKeyHeader = "apikey"

	maxErrorBody = 4 << 10
)

type productsResponse struct {
	Records    []domain.Product `json:"records"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client is a ProductSource that reads the catalog over its HTTP API
type Client struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.ProductSource = (*Client)(nil)

// NewClient creates a client for the catalog API rooted at baseURL.
// A nil httpClient uses a client with the given timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid catalog api url %q: scheme must be http or https", baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: u,
		apiKey:  apiKey,
		client:  httpClient,
		logger:  logger.With(slog.String("client", "catalog_api")),
	}, nil
}

// FetchPage requests one page. The server answers with the records and the
// exact count in the same response.
func (c *Client) FetchPage(ctx context.Context, d domain.QueryDescriptor) (*domain.PageResult, error) {
	var resp productsResponse
	if err := c.get(ctx, productsPath, d.Values(), &resp); err != nil {
		return nil, err
	}

	result := &domain.PageResult{
		Records:    resp.Records,
		TotalCount: resp.TotalCount,
		Page:       resp.Page,
		PageSize:   resp.PageSize,
	}
	if result.Records == nil {
		result.Records = []domain.Product{}
	}
	if result.Page < 1 {
		result.Page = d.Page
	}
	if result.PageSize < 1 {
		result.PageSize = domain.PageSize
	}

	c.logger.DebugContext(ctx, "products fetched",
		slog.String("query", d.Key()),
		slog.Int("records", len(result.Records)),
		slog.Int64("total", result.TotalCount))

	return result, nil
}

// DistinctCategories lists the categories the API reports
func (c *Client) DistinctCategories(ctx context.Context) ([]string, error) {
	var resp categoriesResponse
	if err := c.get(ctx, categoriesPath, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Categories == nil {
		return []string{}, nil
	}
	return resp.Categories, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// StatusError reports a non-2xx answer from the catalog API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog api returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("catalog api returned %d: %s", e.StatusCode, e.Message)
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(raw))
}
