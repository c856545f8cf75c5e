package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("GET /api/babies", "GET", 200, 10*time.Millisecond)
	c.RecordRequest("GET /api/babies", "GET", 200, 12*time.Millisecond)
	c.RecordRequest("", "GET", 404, time.Millisecond)
	c.RecordUpload("VIDEO", "proxy")
	c.ObserveConversion("transcode", time.Second, nil)
	c.ObserveConversion("transcode", time.Second, errors.New("boom"))
	c.RecordCleanupFailure()

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"babybook_http_requests_total", map[string]string{"route": "GET /api/babies", "status": "200"}, 2},
		{"babybook_http_requests_total", map[string]string{"route": "unmatched", "status": "404"}, 1},
		{"babybook_uploads_total", map[string]string{"media_type": "VIDEO", "protocol": "proxy"}, 1},
		{"babybook_conversion_failures_total", map[string]string{"step": "transcode"}, 1},
		{"babybook_storage_cleanup_failures_total", nil, 1},
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, tt := range tests {
		if got := counterValue(families, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func counterValue(families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordUpload("IMAGE", "direct")

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "babybook_uploads_total") {
		t.Error("response should contain babybook_uploads_total metric")
	}
}
