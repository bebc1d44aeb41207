package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /detectors", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /redactions/apply", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	return mux
}

func TestMiddlewareRecordsPattern(t *testing.T) {
	handler := Middleware()(newMux())

	req := httptest.NewRequest(http.MethodGet, "/detectors", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /detectors", "200"))
	if got < 1 {
		t.Errorf("http_requests_total: got %f, want >= 1", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestMiddlewareStatusCodes(t *testing.T) {
	handler := Middleware()(newMux())

	tests := []struct {
		method string
		path   string
		label  string
		status string
	}{
		{http.MethodPost, "/redactions/apply", "POST /redactions/apply", "400"},
		{http.MethodGet, "/missing", "unknown", "404"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, tt.label, tt.status))

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, tt.label, tt.status))
			if after-before != 1 {
				t.Errorf("counter delta: got %f, want 1", after-before)
			}
		})
	}
}

func TestPipelineCollectorsRegistered(t *testing.T) {
	ZonesTotal.WithLabelValues("applied").Add(2)
	if got := testutil.ToFloat64(ZonesTotal.WithLabelValues("applied")); got < 2 {
		t.Errorf("zones_total: got %f, want >= 2", got)
	}
	StageDuration.WithLabelValues("detect").Observe(0.1)
	if testutil.CollectAndCount(StageDuration) == 0 {
		t.Error("expected stage_duration_seconds observations")
	}
}
