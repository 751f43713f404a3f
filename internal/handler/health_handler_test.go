package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockHealthChecker struct {
	pingFn func(ctx context.Context) error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func TestHealthHandler_Test(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{pingFn: func(ctx context.Context) error {
		t.Error("/api/test should not touch the database")
		return nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()
	h.Test(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if w.Body.String() != "Server is running" {
		t.Errorf("body = %q, want %q", w.Body.String(), "Server is running")
	}
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "ping succeeds",
			db:         &mockHealthChecker{},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name: "ping fails",
			db: &mockHealthChecker{pingFn: func(ctx context.Context) error {
				return errors.New("connection refused")
			}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable"}`,
		},
		{
			name:       "no database configured",
			db:         nil,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			h.Health(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestHealthHandler_Health_PingHasDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHealthHandler(&mockHealthChecker{pingFn: func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Health(httptest.NewRecorder(), req)

	if !hasDeadline {
		t.Error("PingContext should be called with a deadline")
	}
}
