// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

/*
Package supervisor runs seatcast's long-lived services under a suture v4
supervisor tree.

	RootSupervisor ("seatcast")
	├── TrainingSupervisor ("training-layer")
	│   └── MonitorService (scheduler due-check loop)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── NATSServerService (embedded NATS, when enabled)
	│   └── WebSocketHubService (hub plus run-event relay)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with backoff. A failing monitor loop does not
take the prediction API down with it, and a broken event stream leaves both
training and serving alone.

Supervisor events are logged through a slog.Logger; callers pass
logging.NewSlogLogger so they land in the same zerolog stream as the rest of
the process.
*/
package supervisor
