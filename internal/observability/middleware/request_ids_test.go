package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestAndTraceKeepsIncomingIDs(t *testing.T) {
	var gotReq, gotTrace string
	h := WithRequestAndTrace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = RequestIDFromContext(r.Context())
		gotTrace = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set("X-Trace-ID", "trace-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if gotReq != "req-1" || gotTrace != "trace-1" {
		t.Fatalf("unexpected ids %q %q", gotReq, gotTrace)
	}
	if rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("request id not echoed")
	}
}

func TestWithRequestAndTraceGeneratesIDs(t *testing.T) {
	var gotReq string
	h := WithRequestAndTrace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = RequestIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(gotReq) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", gotReq)
	}
}

func TestWithMetricsRecordsStatus(t *testing.T) {
	h := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not passed through: %d", rec.Code)
	}
}
