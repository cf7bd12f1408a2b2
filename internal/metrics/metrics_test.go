// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// getGaugeValue extracts the value from a Prometheus gauge
func getGaugeValue(gauge prometheus.Gauge) float64 {
	var m io_prometheus_client.Metric
	if err := gauge.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func TestRecordTrainingRun(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		success bool
		result  string
	}{
		{"density success", "density", true, "success"},
		{"seats failure", "seats", false, "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := TrainingRunsTotal.WithLabelValues(tt.target, tt.result)
			before := getCounterValue(counter)

			RecordTrainingRun(tt.target, tt.success, 2*time.Second)

			if after := getCounterValue(counter); after != before+1 {
				t.Errorf("counter = %v, want %v", after, before+1)
			}
		})
	}
}

func TestRecordModelSelection(t *testing.T) {
	RecordModelSelection("density", "svr", 1.25)

	if v := getGaugeValue(ModelCVRMSE.WithLabelValues("density")); v != 1.25 {
		t.Errorf("cv rmse gauge = %v, want 1.25", v)
	}
	if v := getGaugeValue(ModelSelected.WithLabelValues("density", "svr")); v != 1 {
		t.Errorf("svr selected = %v, want 1", v)
	}

	RecordModelSelection("density", "ridge", 1.1)
	if v := getGaugeValue(ModelSelected.WithLabelValues("density", "svr")); v != 0 {
		t.Errorf("svr selected after reselection = %v, want 0", v)
	}
	if v := getGaugeValue(ModelSelected.WithLabelValues("density", "ridge")); v != 1 {
		t.Errorf("ridge selected = %v, want 1", v)
	}
}

func TestSchedulerGauges(t *testing.T) {
	SetSchedulerState(2)
	if v := getGaugeValue(SchedulerState); v != 2 {
		t.Errorf("state gauge = %v, want 2", v)
	}

	now := time.Unix(1_780_000_000, 0)
	SetSchedulerLastSuccess(now)
	if v := getGaugeValue(SchedulerLastSuccess); v != float64(now.Unix()) {
		t.Errorf("last success gauge = %v", v)
	}

	counter := SchedulerRunsTotal.WithLabelValues("force", "success")
	before := getCounterValue(counter)
	RecordSchedulerRun("force", true, time.Minute)
	if getCounterValue(counter) != before+1 {
		t.Error("expected scheduler run counter to increase")
	}
}

func TestRecordDataSourceQuery(t *testing.T) {
	ok := DataSourceQueriesTotal.WithLabelValues("duckdb", "success")
	failed := DataSourceQueriesTotal.WithLabelValues("duckdb", "failure")
	okBefore, failedBefore := getCounterValue(ok), getCounterValue(failed)

	RecordDataSourceQuery("duckdb", nil)
	RecordDataSourceQuery("duckdb", errors.New("connection refused"))

	if getCounterValue(ok) != okBefore+1 || getCounterValue(failed) != failedBefore+1 {
		t.Error("expected one success and one failure")
	}
}

func TestCountersAndGauges(t *testing.T) {
	pred := PredictionsTotal.WithLabelValues("point")
	before := getCounterValue(pred)
	RecordPrediction("point")
	if getCounterValue(pred) != before+1 {
		t.Error("prediction counter did not increase")
	}

	SetCircuitState("historical", 2)
	if v := getGaugeValue(DataSourceCircuitState.WithLabelValues("historical")); v != 2 {
		t.Errorf("circuit gauge = %v", v)
	}

	ev := EventsPublishedTotal.WithLabelValues("seatcast.run.succeeded", "success")
	before = getCounterValue(ev)
	RecordEventPublished("seatcast.run.succeeded", nil)
	if getCounterValue(ev) != before+1 {
		t.Error("event counter did not increase")
	}

	// Histograms only need to accept observations without panicking.
	RecordFamilySearch("ridge", 10*time.Millisecond)
	RecordAPIRequest("GET", "/api/v1/predictions/{day}", "200", 3*time.Millisecond)
	RecordArtifactSave("seats")
	RecordReportGeneration(true)
}
