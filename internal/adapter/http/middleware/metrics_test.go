package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
		label      string
	}{
		{
			name:       "normalizes override path",
			method:     http.MethodPut,
			path:       "/api/v1/overrides/2026-01-01/USD",
			statusCode: http.StatusTeapot,
			label:      "/api/v1/overrides/{date}/{currency}",
		},
		{
			name:       "keeps non-matching path as-is",
			method:     http.MethodPost,
			path:       "/health",
			statusCode: http.StatusCreated,
			label:      "/health",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewHTTPMetrics(prometheus.NewRegistry())

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			m.Wrap(next).ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			if got := testutil.ToFloat64(m.requestsInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := m.requestsTotal.WithLabelValues(tc.method, tc.label, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Wrap)
	r.Get("/api/v1/rates/{currency}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/rates/EUR", nil))

	counter := m.requestsTotal.WithLabelValues(http.MethodGet, "/api/v1/rates/{currency}", "200")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected pattern label to be used, got %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single rate",
			input:    "/api/v1/rates/USD",
			expected: "/api/v1/rates/{currency}",
		},
		{
			name:     "rate refresh",
			input:    "/api/v1/rates/refresh",
			expected: "/api/v1/rates/refresh",
		},
		{
			name:     "override date",
			input:    "/api/v1/overrides/2026-01-01",
			expected: "/api/v1/overrides/{date}",
		},
		{
			name:     "override cell",
			input:    "/api/v1/overrides/2026-01-01/EUR",
			expected: "/api/v1/overrides/{date}/{currency}",
		},
		{
			name:     "non-matching path",
			input:    "/api/v1/balance",
			expected: "/api/v1/balance",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
