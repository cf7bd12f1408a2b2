// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training Metrics
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatcast_training_runs_total",
			Help: "Total number of per-target training runs",
		},
		[]string{"target", "result"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seatcast_training_duration_seconds",
			Help:    "Duration of per-target training including hyperparameter search",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"target"},
	)

	FamilySearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seatcast_family_search_duration_seconds",
			Help:    "Duration of one algorithm family's hyperparameter study",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"family"},
	)

	ModelCVRMSE = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seatcast_model_cv_rmse",
			Help: "Cross-validated RMSE of the most recently selected model",
		},
		[]string{"target"},
	)

	ModelSelected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seatcast_model_selected",
			Help: "1 for the algorithm family currently selected per target, 0 otherwise",
		},
		[]string{"target", "family"},
	)

	// Serving Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatcast_predictions_total",
			Help: "Total number of predictions served",
		},
		[]string{"operation"}, // "point", "schedule", "weekly", "today_tomorrow"
	)

	ArtifactSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatcast_artifact_saves_total",
			Help: "Total number of model artifacts written",
		},
		[]string{"target"},
	)

	// Scheduler Metrics
	SchedulerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatcast_scheduler_runs_total",
			Help: "Total number of retraining runs",
		},
		[]string{"trigger", "result"},
	)

	SchedulerRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seatcast_scheduler_run_duration_seconds",
			Help:    "Duration of full retraining runs (train, save, report)",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SchedulerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seatcast_scheduler_state",
			Help: "Scheduler state: 0=idle, 1=due, 2=running, 3=failed",
		},
	)

	SchedulerLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seatcast_scheduler_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful retraining run",
		},
	)

	ReportGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatcast_report_generations_total",
			Help: "Total number of report snapshots generated",
		},
		[]string{"result"},
	)

	// Infrastructure Metrics
	DataSourceQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatcast_datasource_queries_total",
			Help: "Total number of historical data source queries",
		},
		[]string{"driver", "result"},
	)

	DataSourceCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seatcast_datasource_circuit_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatcast_events_published_total",
			Help: "Total number of run events published",
		},
		[]string{"topic", "result"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordTrainingRun records one per-target training attempt.
func RecordTrainingRun(target string, success bool, duration time.Duration) {
	TrainingRunsTotal.WithLabelValues(target, resultLabel(success)).Inc()
	TrainingDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// RecordFamilySearch records the duration of one family study.
func RecordFamilySearch(family string, duration time.Duration) {
	FamilySearchDuration.WithLabelValues(family).Observe(duration.Seconds())
}

// familyLabels lists every family so the selection gauge can be reset.
var familyLabels = []string{"ridge", "elastic_net", "svr", "random_forest", "gradient_boosting"}

// RecordModelSelection marks the selected family for a target and records
// its CV RMSE.
func RecordModelSelection(target, family string, cvRMSE float64) {
	ModelCVRMSE.WithLabelValues(target).Set(cvRMSE)
	for _, f := range familyLabels {
		v := 0.0
		if f == family {
			v = 1
		}
		ModelSelected.WithLabelValues(target, f).Set(v)
	}
}

// RecordPrediction counts a served prediction.
func RecordPrediction(operation string) {
	PredictionsTotal.WithLabelValues(operation).Inc()
}

// RecordArtifactSave counts a written model artifact.
func RecordArtifactSave(target string) {
	ArtifactSavesTotal.WithLabelValues(target).Inc()
}

// RecordSchedulerRun records a completed retraining run.
func RecordSchedulerRun(trigger string, success bool, duration time.Duration) {
	SchedulerRunsTotal.WithLabelValues(trigger, resultLabel(success)).Inc()
	SchedulerRunDuration.Observe(duration.Seconds())
}

// SetSchedulerState publishes the scheduler state machine position.
func SetSchedulerState(state int) {
	SchedulerState.Set(float64(state))
}

// SetSchedulerLastSuccess publishes the last successful run time.
func SetSchedulerLastSuccess(t time.Time) {
	SchedulerLastSuccess.Set(float64(t.Unix()))
}

// RecordReportGeneration counts a report snapshot attempt.
func RecordReportGeneration(success bool) {
	ReportGenerationsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordDataSourceQuery counts a historical data query.
func RecordDataSourceQuery(driver string, err error) {
	DataSourceQueriesTotal.WithLabelValues(driver, resultLabel(err == nil)).Inc()
}

// SetCircuitState publishes a circuit breaker state (0 closed, 1 half-open, 2 open).
func SetCircuitState(name string, state int) {
	DataSourceCircuitState.WithLabelValues(name).Set(float64(state))
}

// RecordEventPublished counts a published run event.
func RecordEventPublished(topic string, err error) {
	EventsPublishedTotal.WithLabelValues(topic, resultLabel(err == nil)).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
