package mw

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		want   slog.Level
	}{
		{"read", http.MethodGet, "/api/v1/led/status", 200, slog.LevelDebug},
		{"write", http.MethodPut, "/api/v1/led/mode", 200, slog.LevelInfo},
		{"rejected write", http.MethodPut, "/api/v1/led/mode", 422, slog.LevelInfo},
		{"probe", http.MethodGet, "/healthz", 200, slog.LevelDebug},
		{"server error", http.MethodGet, "/api/v1/thermal", 503, slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			assert.Equal(t, tt.want, requestLevel(r, tt.status))
		})
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(RequestLogging(logger))
	router.Get("/read", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	router.Put("/write", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/read", nil))
	assert.Empty(t, buf.String())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/write", nil))
	out := buf.String()
	assert.Contains(t, out, "method=PUT")
	assert.Contains(t, out, "path=/write")
	assert.Contains(t, out, "status=204")
	assert.Regexp(t, `request_id=\S+`, out)
}

func TestRateLimitByIP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("disabled", func(t *testing.T) {
		h := RateLimitByIP(logger, 0)(ok)
		for range 5 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("limited", func(t *testing.T) {
		h := RateLimitByIP(logger, 2)(ok)
		for range 2 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "rate limit exceeded")
	})
}
