package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Login(LoginSuccess)
	m.ErrorResponse("forbidden")
	m.AuditFailure()

	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected passthrough, got %d", rr.Code)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.Login(LoginSuccess)
	m.Login(LoginBadPassword)
	m.Login(LoginBadPassword)
	m.AuditFailure()

	if got := testutil.ToFloat64(m.logins.WithLabelValues(LoginBadPassword)); got != 2 {
		t.Fatalf("expected 2 bad password logins, got %v", got)
	}
	if got := testutil.ToFloat64(m.auditFailures); got != 1 {
		t.Fatalf("expected 1 audit failure, got %v", got)
	}
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/api/items/{id}", "202")); got != 3 {
		t.Fatalf("expected 3 requests on pattern, got %v", got)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "http_requests_total") {
		t.Fatalf("exposition missing http_requests_total")
	}
}
