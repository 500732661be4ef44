package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/catalog-browser/internal/handlers/middleware"
	"github.com/ammerola/catalog-browser/internal/pkg/logger"
	"github.com/ammerola/catalog-browser/test/helpers"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name              string
		header            string
		existingRequestID string
		validateResponse  func(*testing.T, *http.Response, string)
	}{
		{
			name: "generates_new_request_id",
			validateResponse: func(t *testing.T, resp *http.Response, header string) {
				requestID := resp.Header.Get(header)
				assert.Len(t, requestID, 36) // UUID length
				assert.Equal(t, requestID, seen)
			},
		},
		{
			name:              "uses_existing_request_id",
			existingRequestID: "existing-id-123",
			validateResponse: func(t *testing.T, resp *http.Response, header string) {
				assert.Equal(t, "existing-id-123", resp.Header.Get(header))
				assert.Equal(t, "existing-id-123", seen)
			},
		},
		{
			name:              "custom_header",
			header:            "X-Correlation-ID",
			existingRequestID: "corr-1",
			validateResponse: func(t *testing.T, resp *http.Response, header string) {
				assert.Equal(t, "corr-1", resp.Header.Get(header))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			header := tt.header
			if header == "" {
				header = middleware.DefaultRequestIDHeader
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			if tt.existingRequestID != "" {
				req.Header.Set(header, tt.existingRequestID)
			}
			w := httptest.NewRecorder()

			middleware.RequestID(tt.header)(handler).ServeHTTP(w, req)

			tt.validateResponse(t, w.Result(), header)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewLogger(&logger.LogConfig{Level: "debug", Format: "json", Output: &buf})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	})

	wrapped := middleware.Chain(handler, middleware.RequestID(""), middleware.Logger(l))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "WARN", entry["severity"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "/api/v1/products", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status_code"])
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "recovers_from_panic",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			}),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error",
		},
		{
			name: "passes_through_normal_response",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("normal response"))
			}),
			expectedStatus: http.StatusOK,
			expectedBody:   "normal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.Recovery(helpers.TestLogger())(tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := middleware.RateLimit(ctx, 3, time.Minute)(handler)

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, request("10.0.0.1"), "request %d within burst", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"), "limits are per client")
}

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		allowed        []string
		origin         string
		method         string
		expectedStatus int
		expectedOrigin string
	}{
		{
			name:           "allowed_origin",
			allowed:        []string{"https://shop.example.com"},
			origin:         "https://shop.example.com",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://shop.example.com",
		},
		{
			name:           "wildcard",
			allowed:        []string{"*"},
			origin:         "https://any.example.com",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://any.example.com",
		},
		{
			name:           "disallowed_origin",
			allowed:        []string{"https://shop.example.com"},
			origin:         "https://evil.example.com",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "preflight",
			allowed:        []string{"*"},
			origin:         "https://shop.example.com",
			method:         http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			expectedOrigin: "https://shop.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/products", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			middleware.CORS(tt.allowed)(handler).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedOrigin != "" {
				assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	middleware.SecureHeaders(handler).ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
