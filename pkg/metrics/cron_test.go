package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveDuration("stale_orders", 250*time.Millisecond)
	m.IncSuccess("stale_orders")
	m.IncSuccess("stale_orders")
	m.IncFailure("snapshot")
	m.IncSkipped("locked")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	runs := family(mfs, "supplychain_cron_job_runs_total")
	if got := sample(runs, map[string]string{"job": "stale_orders", "outcome": "success"}).GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := sample(runs, map[string]string{"job": "snapshot", "outcome": "failure"}).GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if sample(runs, map[string]string{"job": "snapshot", "outcome": "success"}) != nil {
		t.Fatal("a failing job must not record a success")
	}

	last := sample(family(mfs, "supplychain_cron_job_last_success_timestamp_seconds"), map[string]string{"job": "stale_orders"})
	if last.GetGauge().GetValue() <= 0 {
		t.Fatal("expected last success timestamp to be set")
	}

	skipped := sample(family(mfs, "supplychain_cron_tick_skipped_total"), map[string]string{"reason": "locked"})
	if skipped.GetCounter().GetValue() != 1 {
		t.Fatalf("expected skipped=1, got %v", skipped.GetCounter().GetValue())
	}

	hist := sample(family(mfs, "supplychain_cron_job_duration_seconds"), map[string]string{"job": "stale_orders"})
	if hist.GetHistogram().GetSampleSum() <= 0 {
		t.Fatal("expected a recorded duration")
	}
}

func TestCronJobMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewCronJobMetrics(nil)
	m.IncSuccess("x")
	m.IncFailure("")
	m.ObserveDuration("x", time.Second)

	var nilMetrics *CronJobMetrics
	nilMetrics.IncSkipped("locked")
}

func family(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// sample returns the series in mf whose labels include every pair in want.
func sample(mf *dto.MetricFamily, want map[string]string) *dto.Metric {
	for _, m := range mf.GetMetric() {
		matched := 0
		for _, lp := range m.GetLabel() {
			if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(want) {
			return m
		}
	}
	return nil
}
