// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/forecast"
	"github.com/tomtom215/seatcast/internal/fsutil"
	"github.com/tomtom215/seatcast/internal/metrics"
	"github.com/tomtom215/seatcast/internal/models"
)

const (
	artifactExt = ".gob.gz"
	pointerFile = "current.json"
)

// ArtifactMetadata contains information about a stored model.
type ArtifactMetadata struct {
	// Target is the prediction target the model serves.
	Target models.Target `json:"target"`

	// Version is the per-target version (monotonically increasing).
	Version int `json:"version"`

	// Algorithm is the selected algorithm family.
	Algorithm string `json:"algorithm"`

	// TrainedAt is when the batch holding the model was committed.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// TrainingRecordCount is the number of records used for training.
	TrainingRecordCount int `json:"training_record_count"`

	// RMSE and R2 are the holdout scores; CVRMSE the selection score.
	RMSE   float64 `json:"rmse"`
	R2     float64 `json:"r2"`
	CVRMSE float64 `json:"cv_rmse"`

	// Checksum is the SHA-256 checksum of the uncompressed model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format for artifact files.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// Pointer names the current version of every target.
type Pointer struct {
	Generation int64                 `json:"generation"`
	SwappedAt  time.Time             `json:"swapped_at"`
	Versions   map[models.Target]int `json:"versions"`
}

func (p Pointer) clone() Pointer {
	out := Pointer{Generation: p.Generation, SwappedAt: p.SwappedAt, Versions: make(map[models.Target]int, len(p.Versions))}
	for k, v := range p.Versions {
		out.Versions[k] = v
	}
	return out
}

// Store manages model persistence and the current-model pointer.
type Store struct {
	baseDir string
	logger  zerolog.Logger
	now     func() time.Time

	// writeMu serializes Save calls.
	writeMu sync.Mutex

	// mu guards current and versions.
	mu       sync.RWMutex
	current  Pointer
	versions map[models.Target]int
}

// NewStore creates a new model store at the given directory.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(baseDir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		logger:   logger.With().Str("component", "artifact_store").Logger(),
		now:      time.Now,
		current:  Pointer{Versions: make(map[models.Target]int)},
		versions: make(map[models.Target]int),
	}

	if err := s.scanModels(); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}
	if err := s.loadPointer(); err != nil {
		return nil, fmt.Errorf("load current pointer: %w", err)
	}

	return s, nil
}

// scanModels records the highest version on disk for every target so new
// versions never reuse a number, even for artifacts a failed batch left
// unreferenced.
func (s *Store) scanModels() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		target, version, ok := parseArtifactFilename(entry.Name())
		if !ok {
			continue
		}
		if version > s.versions[target] {
			s.versions[target] = version
		}
	}
	return nil
}

func (s *Store) loadPointer() error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, pointerFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode pointer: %w", err)
	}
	if p.Versions == nil {
		p.Versions = make(map[models.Target]int)
	}
	s.current = p
	return nil
}

// parseArtifactFilename extracts target and version from a filename like
// "density_v3.gob.gz".
func parseArtifactFilename(name string) (models.Target, int, bool) {
	if !strings.HasSuffix(name, artifactExt) {
		return "", 0, false
	}
	name = strings.TrimSuffix(name, artifactExt)

	idx := strings.LastIndex(name, "_v")
	if idx <= 0 {
		return "", 0, false
	}
	var version int
	if _, err := fmt.Sscanf(name[idx+2:], "%d", &version); err != nil || version < 1 {
		return "", 0, false
	}
	target := models.Target(name[:idx])
	if !target.Valid() {
		return "", 0, false
	}
	return target, version, true
}

// Save writes every model in the batch under a new version and then swaps
// the current pointer once. Targets absent from the batch keep their
// current version. It returns the new version of each saved target.
//
// The caller's models are not modified; the stored copies carry the
// assigned version.
func (s *Store) Save(ctx context.Context, batch map[models.Target]*forecast.TrainedModel) (map[models.Target]int, error) {
	if len(batch) == 0 {
		return nil, errors.New("empty batch")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	committedAt := s.now()

	s.mu.RLock()
	next := s.current.clone()
	latest := make(map[models.Target]int, len(s.versions))
	for k, v := range s.versions {
		latest[k] = v
	}
	s.mu.RUnlock()

	targets := make([]models.Target, 0, len(batch))
	for t := range batch {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	written := make(map[models.Target]int, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		model := batch[target]
		if model == nil || model.Model == nil {
			return nil, fmt.Errorf("%s: model is not fitted", target)
		}
		version := latest[target] + 1
		if err := s.writeArtifact(target, version, model, committedAt); err != nil {
			s.recordVersions(written)
			return nil, fmt.Errorf("write %s artifact: %w", target, err)
		}
		latest[target] = version
		written[target] = version
		next.Versions[target] = version
		metrics.RecordArtifactSave(string(target))
	}

	next.Generation++
	next.SwappedAt = s.now()
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		s.recordVersions(written)
		return nil, fmt.Errorf("encode pointer: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(s.baseDir, pointerFile), data, 0o640); err != nil {
		s.recordVersions(written)
		return nil, fmt.Errorf("swap current pointer: %w", err)
	}

	s.mu.Lock()
	s.current = next
	for k, v := range written {
		s.versions[k] = v
	}
	s.mu.Unlock()

	s.logger.Info().
		Int64("generation", next.Generation).
		Interface("versions", written).
		Msg("swapped current models")

	return written, nil
}

// recordVersions remembers versions written by a failed batch so they are
// not reused.
func (s *Store) recordVersions(written map[models.Target]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range written {
		if v > s.versions[k] {
			s.versions[k] = v
		}
	}
}

// writeArtifact persists a copy of model stamped with its version and the
// batch commit time.
func (s *Store) writeArtifact(target models.Target, version int, model *forecast.TrainedModel, committedAt time.Time) error {
	stored := *model
	stored.Version = version
	stored.TrainedAt = committedAt

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&stored); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	sf := storedFile{
		Metadata: ArtifactMetadata{
			Target:              target,
			Version:             version,
			Algorithm:           string(model.Algorithm),
			TrainedAt:           committedAt,
			SavedAt:             s.now(),
			TrainingRecordCount: model.TrainingRecordCount,
			RMSE:                model.RMSE,
			R2:                  model.R2,
			CVRMSE:              model.CVRMSE,
			Checksum:            hex.EncodeToString(hash[:]),
			SizeBytes:           int64(compressed.Len()),
		},
		CompressedData: compressed.Bytes(),
	}

	var file bytes.Buffer
	if err := gob.NewEncoder(&file).Encode(sf); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}
	return fsutil.WriteFileAtomic(s.artifactPath(target, version), file.Bytes(), 0o640)
}

// Load returns the current model for a target, or a NotFoundError when no
// model has been saved yet.
func (s *Store) Load(ctx context.Context, target models.Target) (*forecast.TrainedModel, error) {
	s.mu.RLock()
	version, ok := s.current.Versions[target]
	s.mu.RUnlock()

	if !ok {
		return nil, &models.NotFoundError{Resource: "model", Key: string(target)}
	}
	model, _, err := s.readArtifact(target, version)
	return model, err
}

// LoadCurrent returns every current model from a single pointer snapshot,
// along with the snapshot's generation.
func (s *Store) LoadCurrent(ctx context.Context) (map[models.Target]*forecast.TrainedModel, int64, error) {
	s.mu.RLock()
	snapshot := s.current.clone()
	s.mu.RUnlock()

	if len(snapshot.Versions) == 0 {
		return nil, 0, &models.NotFoundError{Resource: "model", Key: "current"}
	}

	out := make(map[models.Target]*forecast.TrainedModel, len(snapshot.Versions))
	for target, version := range snapshot.Versions {
		model, _, err := s.readArtifact(target, version)
		if err != nil {
			return nil, 0, err
		}
		out[target] = model
	}
	return out, snapshot.Generation, nil
}

// LoadVersion returns a specific stored version.
func (s *Store) LoadVersion(ctx context.Context, target models.Target, version int) (*forecast.TrainedModel, error) {
	model, _, err := s.readArtifact(target, version)
	return model, err
}

// Generation returns the current pointer generation. It changes on every
// successful Save.
func (s *Store) Generation() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Generation
}

// Current returns a copy of the current pointer.
func (s *Store) Current() Pointer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

func (s *Store) readArtifact(target models.Target, version int) (*forecast.TrainedModel, *ArtifactMetadata, error) {
	sf, err := s.readStoredFile(target, version)
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	checksum := hex.EncodeToString(hash[:])
	if checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch for %s v%d: expected %s, got %s", target, version, sf.Metadata.Checksum, checksum)
	}

	var model forecast.TrainedModel
	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(&model); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}
	return &model, &sf.Metadata, nil
}

func (s *Store) readStoredFile(target models.Target, version int) (*storedFile, error) {
	f, err := os.Open(s.artifactPath(target, version)) //nolint:gosec // path is built from a validated target and version
	if errors.Is(err, os.ErrNotExist) {
		return nil, &models.NotFoundError{Resource: "model", Key: fmt.Sprintf("%s_v%d", target, version)}
	}
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// ListVersions returns the metadata of every stored version of a target in
// ascending version order.
func (s *Store) ListVersions(ctx context.Context, target models.Target) ([]ArtifactMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		t, v, ok := parseArtifactFilename(entry.Name())
		if ok && t == target {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)

	out := make([]ArtifactMetadata, 0, len(versions))
	for _, v := range versions {
		sf, err := s.readStoredFile(target, v)
		if err != nil {
			s.logger.Warn().Err(err).Str("target", string(target)).Int("version", v).Msg("skipping unreadable artifact")
			continue
		}
		out = append(out, sf.Metadata)
	}
	return out, nil
}

// artifactPath returns the file path for a model version.
func (s *Store) artifactPath(target models.Target, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", target, version, artifactExt))
}
