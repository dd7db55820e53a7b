package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/novapharm/novapharm/internal/jobs"
	_ "github.com/novapharm/novapharm/testing"
)

func TestJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	// Expiry scans run against warm connection pools and should stay fast.
	for i := 0; i < 60; i++ {
		tracker := metrics.Track("inventory:expiry_scan")
		time.Sleep(12 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending scan tracker: %v", err)
		}
	}

	// Report warmups hit uncached aggregation queries and may be slower.
	for i := 0; i < 15; i++ {
		tracker := metrics.Track("reports:warmup")
		time.Sleep(40 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending warmup tracker: %v", err)
		}
	}

	// Inject a couple of failures so the failure series exists.
	for i := 0; i < 3; i++ {
		tracker := metrics.Track("inventory:expiry_scan")
		time.Sleep(15 * time.Millisecond)
		if err := tracker.End(errors.New("timeout")); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "novapharm_jobs_total", map[string]string{"job": "inventory:expiry_scan", "status": "success"})
	failure := metricValue(t, families, "novapharm_jobs_total", map[string]string{"job": "inventory:expiry_scan", "status": "failure"})
	if success+failure == 0 {
		t.Fatal("no expiry scan executions recorded")
	}
	ratio := success / (success + failure)
	if ratio < 0.9 {
		t.Fatalf("expiry scan success ratio too low: %f", ratio)
	}

	warmupDuration := histogramMean(t, families, "novapharm_job_duration_seconds", map[string]string{"job": "reports:warmup"})
	if warmupDuration > 2.0 {
		t.Fatalf("report warmup duration above budget: %f", warmupDuration)
	}

	scanDuration := histogramMean(t, families, "novapharm_job_duration_seconds", map[string]string{"job": "inventory:expiry_scan"})
	if scanDuration > 0.5 {
		t.Fatalf("expiry scan duration above budget: %f", scanDuration)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name || fam.GetType() != dto.MetricType_HISTOGRAM {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, val := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				if lp.GetValue() != val {
					return false
				}
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
