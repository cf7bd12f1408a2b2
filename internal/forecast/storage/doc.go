// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package storage persists trained forecast models.
//
// Models are serialized using Go's gob encoding, checksummed with SHA-256 and
// gzip-compressed. Each save writes every target in the batch under a new
// version and only then swaps a single JSON pointer file that names the
// current version of every target.
//
// # Storage Format
//
//	{dir}/density_v3.gob.gz   immutable artifact (metadata + compressed model)
//	{dir}/seats_v3.gob.gz
//	{dir}/current.json        {"generation": 7, "versions": {"density": 3, "seats": 3}}
//
// Artifact files are never rewritten or pruned; the version history is
// append-only.
//
// # Thread Safety
//
// Writers are serialized by the store. Readers take the pointer snapshot
// under a short read lock and then read immutable files, so a reader never
// waits for a save and never observes a set where only some targets have
// advanced.
package storage
