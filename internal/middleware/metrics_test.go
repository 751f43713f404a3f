package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockStatusRecorder struct {
	statuses []int
}

func (m *mockStatusRecorder) RecordHTTPStatus(statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	rec := &mockStatusRecorder{}

	handler := NewMetricsMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/login", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/test", nil))

	if len(rec.statuses) != 2 {
		t.Fatalf("recorded %d statuses, want 2", len(rec.statuses))
	}
	if rec.statuses[0] != http.StatusUnauthorized {
		t.Errorf("statuses[0] = %d, want %d", rec.statuses[0], http.StatusUnauthorized)
	}
	if rec.statuses[1] != http.StatusOK {
		t.Errorf("statuses[1] = %d, want %d", rec.statuses[1], http.StatusOK)
	}
}
