// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

/*
Package config loads seatcast configuration with koanf.

Sources are layered, later ones winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the path passed to Load, else CONFIG_PATH,
    else config.yaml / config.yml / /etc/seatcast/config.yaml
 3. Environment variables from an explicit allow-list (envMappings)

The merged result is checked by Validate: struct tags through the shared
validator plus a few cross-field rules.

# Environment Variables

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: add file:line (default: false)

Historical data source:
  - DB_DRIVER: duckdb, postgres or sqlite3 (default: duckdb)
  - DB_DSN: driver connection string (default: /data/seatcast.duckdb)
  - DB_TABLE: records table (default: density_history)
  - DB_CREATE_SCHEMA: create the table when missing (default: true)
  - DB_SEED_FILE: CSV loaded at startup when the table is empty
  - DB_QUERY_TIMEOUT: per-query timeout (default: 30s)

Storage:
  - ARTIFACT_DIR: model artifacts (default: /data/models)
  - REPORT_DIR: report snapshots (default: /data/reports)
  - STATE_DIR: scheduler state (default: /data/state)

Training:
  - TRAINING_TRIALS: search trials per family (default: 50)
  - TRAINING_SEED: random seed (default: 42)
  - TRAINING_FOLDS: cross-validation folds (default: 5)
  - TRAINING_TEST_FRACTION: held-out share (default: 0.2)
  - TRAINING_FAMILIES: comma-separated family names (default: all)
  - TRAINING_WORKERS: concurrent family searches (default: CPU count)

Scheduler:
  - SCHEDULER_CYCLE_DAYS: retraining cycle (default: 14)
  - SCHEDULER_POLL_INTERVAL: monitor poll period (default: 1h)
  - SCHEDULER_LOOKBACK_DAYS: training window, 0 for all history (default: 0)

Prediction:
  - SEAT_CAPACITY: seats in the space (default: 100)

HTTP:
  - HTTP_ADDR: listen address (default: :8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
  - CORS_ORIGINS: comma-separated origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW: per-IP limit, 0 disables

Events:
  - NATS_URL: external NATS server; empty keeps events in-process
  - NATS_EMBEDDED: run an embedded NATS server (default: false)
  - NATS_HOST, NATS_PORT, NATS_STORE_DIR: embedded server settings
*/
package config
