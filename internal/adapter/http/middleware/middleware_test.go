package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRecoveryMiddlewareConvertsPanicTo500(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts/alice/ilp", nil)
	rr := httptest.NewRecorder()

	NewRecoveryMiddleware(logger).Wrap(panicking).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal server error") {
		t.Errorf("expected error envelope, got %q", rr.Body.String())
	}
	if !strings.Contains(buf.String(), "handler panicked") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestLoggingMiddlewareSkipsProbeEndpoints(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	wrapped := NewLoggingMiddleware(logger).Wrap(next)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if buf.Len() != 0 {
		t.Fatalf("probe requests must not be logged, got %s", buf.String())
	}

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts", nil))
	if !strings.Contains(buf.String(), `"path":"/accounts"`) {
		t.Fatalf("expected a request log line, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"bytes":2`) {
		t.Errorf("expected response size in the log line, got %s", buf.String())
	}
}

func TestLoggingMiddlewareEscalatesServerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	NewLoggingMiddleware(logger).Wrap(failing).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts", nil))

	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("5xx should log at error level, got %s", buf.String())
	}
}
