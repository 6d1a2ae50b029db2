package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		health     HealthFunc
		wantStatus int
	}{
		{name: "no check", health: nil, wantStatus: http.StatusOK},
		{name: "healthy", health: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "unhealthy", health: func(context.Context) error { return errors.New("store down") }, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer("127.0.0.1:0", tt.health, zerolog.Nop())

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestMetricsEndpointExposesTrackerMetrics(t *testing.T) {
	CommitErrors.Inc()
	Flushes.WithLabelValues("focus").Inc()

	srv := NewServer("127.0.0.1:0", nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"sitetime_commit_errors_total", "sitetime_flushes_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
