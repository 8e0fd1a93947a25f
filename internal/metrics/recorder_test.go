package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("generate", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("generate", ResultSuccess)
	r.IncBuildOutcome("success")
	r.ObservePublishDuration(time.Second, true)
	r.IncPublishRetry()
}

func TestPrometheusRecorderCounters(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncStageResult("generate", ResultSuccess)
	r.IncStageResult("generate", ResultSuccess)
	r.IncStageResult("publish", ResultFatal)
	r.IncBuildOutcome("success")
	r.IncPublishRetry()

	if got := testutil.ToFloat64(r.stageResults.WithLabelValues("generate", "success")); got != 2 {
		t.Errorf("expected 2 generate successes, got %v", got)
	}
	if got := testutil.ToFloat64(r.stageResults.WithLabelValues("publish", "fatal")); got != 1 {
		t.Errorf("expected 1 publish fatal, got %v", got)
	}
	if got := testutil.ToFloat64(r.buildOutcome.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 success outcome, got %v", got)
	}
	if got := testutil.ToFloat64(r.publishRetries); got != 1 {
		t.Errorf("expected 1 publish retry, got %v", got)
	}
}

func TestPrometheusRecorderNilReceiverFieldsSafe(t *testing.T) {
	var r *PrometheusRecorder
	// Must not panic before initialization.
	r.ObserveStageDuration("generate", time.Second)
	r.IncStageResult("generate", ResultSuccess)
	r.IncBuildOutcome("success")
	r.ObservePublishDuration(time.Second, false)
	r.IncPublishRetry()
}

func TestHTTPHandlerServesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)
	r.IncBuildOutcome("success")

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
