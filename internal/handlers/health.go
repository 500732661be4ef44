// internal/handlers/health.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/catalog-browser/internal/core/ports"
	"github.com/ammerola/catalog-browser/internal/core/services"
	"github.com/ammerola/catalog-browser/internal/pkg/config"
	"github.com/ammerola/catalog-browser/internal/workers"
)

// Dependency states reported by /health and /ready
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not ready"
	StatusMissing   = "not configured"
)

// HealthHandler reports on what the catalog needs to answer queries: the
// product store and its schema, the category cache and the warm-up queue
type HealthHandler struct {
	db        ports.Database
	schema    ports.SchemaInspector
	redis     redis.UniversalClient
	asynq     *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. schema and asynqInspector
// may be nil.
func NewHealthHandler(
	database ports.Database,
	schema ports.SchemaInspector,
	redisClient redis.UniversalClient,
	asynqInspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		schema:    schema,
		redis:     redisClient,
		asynq:     asynqInspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus is the /health response
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
}

// ServiceInfo is the state of one dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// ReadinessStatus is the /ready response
type ReadinessStatus struct {
	Ready  bool                `json:"ready"`
	Schema *ports.SchemaStatus `json:"schema,omitempty"`
	// Details maps each dependency to StatusReady, StatusNotReady or
	// StatusDegraded
	Details map[string]string `json:"details"`
}

// Health handles GET /health. Any dependency that is not healthy marks the
// whole service degraded with a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) ServiceInfo{
		"database": h.checkDatabase,
		"schema":   h.checkSchema,
		"redis":    h.checkRedis,
	}
	if h.asynq != nil {
		checks["asynq"] = h.checkAsynq
	}

	health := HealthStatus{
		Status:      StatusHealthy,
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo, len(checks)),
	}

	for name, check := range checks {
		start := time.Now()
		info := check(ctx)
		info.ResponseTime = time.Since(start).String()
		health.Services[name] = info

		if info.Status != StatusHealthy && info.Status != StatusMissing {
			health.Status = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if health.Status != StatusHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, health)
}

// Readiness handles GET /ready. The instance is ready when the product store
// answers and every shipped migration is applied. A cache outage only
// degrades category reads, so it never blocks readiness.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := ReadinessStatus{Ready: true, Details: make(map[string]string)}

	if err := h.db.Ping(ctx); err != nil {
		resp.Ready = false
		resp.Details["database"] = StatusNotReady
	} else {
		resp.Details["database"] = StatusReady
	}

	switch status, err := h.schemaStatus(ctx); {
	case h.schema == nil:
		resp.Details["schema"] = StatusMissing
	case err != nil:
		resp.Ready = false
		resp.Details["schema"] = StatusNotReady
	default:
		resp.Schema = &status
		if status.Current() {
			resp.Details["schema"] = StatusReady
		} else {
			resp.Ready = false
			resp.Details["schema"] = StatusNotReady
		}
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		resp.Details["cache"] = StatusDegraded
	} else {
		resp.Details["cache"] = StatusReady
	}

	statusCode := http.StatusOK
	if !resp.Ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, resp)
}

func (h *HealthHandler) schemaStatus(ctx context.Context) (ports.SchemaStatus, error) {
	if h.schema == nil {
		return ports.SchemaStatus{}, nil
	}
	return h.schema.SchemaStatus(ctx)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: StatusUnhealthy, Message: err.Error()}
	}
	return ServiceInfo{Status: StatusHealthy, Details: h.db.Health(ctx)}
}

func (h *HealthHandler) checkSchema(ctx context.Context) ServiceInfo {
	if h.schema == nil {
		return ServiceInfo{Status: StatusMissing}
	}

	status, err := h.schema.SchemaStatus(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "schema health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: StatusUnhealthy, Message: err.Error()}
	}

	info := ServiceInfo{
		Status: StatusHealthy,
		Details: map[string]interface{}{
			"version": status.Version,
			"latest":  status.Latest,
			"dirty":   status.Dirty,
		},
	}
	switch {
	case status.Dirty:
		info.Status = StatusUnhealthy
		info.Message = fmt.Sprintf("migration %d failed part way", status.Version)
	case status.Version < status.Latest:
		info.Status = StatusDegraded
		info.Message = fmt.Sprintf("schema at version %d, %d available", status.Version, status.Latest)
	}
	return info
}

// checkRedis also reports whether the category list is currently cached and
// for how long
func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: StatusUnhealthy, Message: err.Error()}
	}

	details := map[string]interface{}{
		"categories_cached": false,
	}
	if ttl, err := h.redis.TTL(ctx, services.CategoriesCacheKey).Result(); err == nil && ttl > 0 {
		details["categories_cached"] = true
		details["categories_ttl"] = ttl.Round(time.Second).String()
	}

	stats := h.redis.PoolStats()
	details["total_conns"] = stats.TotalConns
	details["idle_conns"] = stats.IdleConns

	return ServiceInfo{Status: StatusHealthy, Details: details}
}

// checkAsynq reports the backlog of the catalog queue and how many workers
// are serving it
func (h *HealthHandler) checkAsynq(ctx context.Context) ServiceInfo {
	queue, err := h.asynq.GetQueueInfo(workers.QueueDefault)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		// Nothing has been enqueued yet
		return ServiceInfo{Status: StatusHealthy, Details: map[string]interface{}{"queue": workers.QueueDefault}}
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "asynq health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: StatusUnhealthy, Message: err.Error()}
	}

	details := map[string]interface{}{
		"queue":     queue.Queue,
		"pending":   queue.Pending,
		"active":    queue.Active,
		"retry":     queue.Retry,
		"archived":  queue.Archived,
		"processed": queue.Processed,
		"failed":    queue.Failed,
	}
	if servers, err := h.asynq.Servers(); err == nil {
		details["workers"] = len(servers)
	}

	return ServiceInfo{Status: StatusHealthy, Details: details}
}
