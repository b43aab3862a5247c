package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend(t *testing.T) {
	if _, err := NewBackend("job", ""); err == nil {
		t.Fatal("missing gateway URL accepted")
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "pipeline" {
		t.Errorf("default job name = %q", b.jobName)
	}
	if b.gatewayURL != "http://pushgateway:9091" {
		t.Errorf("gatewayURL = %q", b.gatewayURL)
	}
}

func TestIncCounterRouting(t *testing.T) {
	b, err := NewBackend("pipeline", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("pipeline_stage_total", 3, metrics.Labels{"stage": "ingest_order", "status": "success"})
	b.IncCounter("pipeline_records_total", 5, metrics.Labels{"kind": "accepted"})
	b.IncCounter("pipeline_partitions_total", 2, nil)
	b.IncCounter("pipeline_partitions_total", 1, nil)
	b.IncCounter("some_other_metric", 10, metrics.Labels{"stage": "x"})

	if got := counterValue(t, b.stageCounter.WithLabelValues("ingest_order", "success")); got != 3 {
		t.Errorf("stage counter = %v", got)
	}
	if got := counterValue(t, b.recordCounter.WithLabelValues("accepted")); got != 5 {
		t.Errorf("record counter = %v", got)
	}
	if got := counterValue(t, b.partitionCounter); got != 3 {
		t.Errorf("partition counter = %v", got)
	}
}

// A zero-value backend has nil collectors; updates must be dropped, not panic.
func TestZeroValueBackendIsInert(t *testing.T) {
	b := &Backend{}
	b.IncCounter("pipeline_stage_total", 1, metrics.Labels{"stage": "s", "status": "success"})
	b.IncCounter("pipeline_records_total", 1, metrics.Labels{"kind": "accepted"})
	b.IncCounter("pipeline_partitions_total", 1, nil)
	b.ObserveHistogram("pipeline_stage_duration_seconds", 0.5, metrics.Labels{"stage": "s", "status": "success"})
}

func TestObserveHistogram(t *testing.T) {
	b, err := NewBackend("pipeline", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	labels := metrics.Labels{"stage": "gold_build", "status": "success"}

	b.ObserveHistogram("pipeline_stage_duration_seconds", 1.5, labels)
	b.ObserveHistogram("some_other_metric", 9.9, labels)

	m := &dto.Metric{}
	obs, ok := b.stageDuration.WithLabelValues("gold_build", "success").(prometheus.Metric)
	if !ok {
		t.Fatal("summary child does not implement prometheus.Metric")
	}
	if err := obs.Write(m); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	if m.GetSummary().GetSampleCount() != 1 || m.GetSummary().GetSampleSum() != 1.5 {
		t.Errorf("summary count=%d sum=%v", m.GetSummary().GetSampleCount(), m.GetSummary().GetSampleSum())
	}
}

func TestFlushPushesToGateway(t *testing.T) {
	pushed := make(chan int, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		pushed <- len(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("pipeline-job", server.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("pipeline_stage_total", 1, metrics.Labels{"stage": "ingest", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	select {
	case n := <-pushed:
		if n == 0 {
			t.Error("push request body was empty")
		}
	default:
		t.Fatal("no push request reached the gateway")
	}
}
