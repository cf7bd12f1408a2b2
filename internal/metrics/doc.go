// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

/*
Package metrics provides Prometheus instrumentation for Seatcast.

All metrics are registered on the default registry through promauto at
package initialization and are exposed by the API server at /metrics.

# Metric Groups

Training:
  - seatcast_training_runs_total{target,result}
  - seatcast_training_duration_seconds{target}
  - seatcast_family_search_duration_seconds{family}
  - seatcast_model_cv_rmse{target}
  - seatcast_model_selected{target,family}

Serving:
  - seatcast_predictions_total{operation}
  - seatcast_artifact_saves_total{target}

Scheduling and reports:
  - seatcast_scheduler_runs_total{trigger,result}
  - seatcast_scheduler_run_duration_seconds
  - seatcast_scheduler_state
  - seatcast_scheduler_last_success_timestamp_seconds
  - seatcast_report_generations_total{result}

Infrastructure:
  - seatcast_datasource_queries_total{driver,result}
  - seatcast_datasource_circuit_state{name}
  - seatcast_events_published_total{topic,result}
  - api_requests_total{method,endpoint,status}
  - api_request_duration_seconds{method,endpoint}

# Usage

	start := time.Now()
	result, err := trainer.Train(ctx, records, targets)
	metrics.RecordSchedulerRun("check", err == nil, time.Since(start))
*/
package metrics
