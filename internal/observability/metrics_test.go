package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesObservedSeries(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP("/transcribe", http.MethodPost, http.StatusOK, 20*time.Millisecond)
	m.ObserveUpstream("s2t_audio_transcriptions", http.StatusOK, time.Second)
	m.ObserveCalibration("calibrated")
	m.ObserveOperation("summarize", "toggled", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`scribeflow_http_requests_total{method="POST",route="/transcribe",status="200"} 1`,
		`scribeflow_upstream_requests_total{endpoint="s2t_audio_transcriptions",status="200"} 1`,
		`scribeflow_calibration_total{outcome="calibrated"} 1`,
		`scribeflow_workflow_operations_total{operation="summarize",outcome="toggled"} 1`,
		`scribeflow_workflow_operation_duration_seconds_count{operation="summarize"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("", "", 0, 0)
	m.ObserveUpstream("", 0, 0)
	m.ObserveCalibration("failed")
	m.ObserveOperation("transcribe", "failed", 0)
}
