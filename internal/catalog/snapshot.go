package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/rs/zerolog"
)

// SnapshotStore persists the last successfully mapped catalog so that a
// provider outage degrades to a previously known listing.
type SnapshotStore interface {
	// Load reads the most recent snapshot.
	Load(ctx context.Context) ([]model.Service, error)

	// Save replaces the snapshot with services.
	Save(ctx context.Context, services []model.Service) error
}

// fileSnapshotStore implements SnapshotStore with a gzipped JSON file.
type fileSnapshotStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileSnapshotStore creates a snapshot store backed by a local gzipped file.
func NewFileSnapshotStore(path string, logger zerolog.Logger) SnapshotStore {
	return &fileSnapshotStore{
		path:   path,
		logger: logger.With().Str("component", "catalog-snapshot-file").Logger(),
	}
}

// Load reads the gzipped snapshot file.
func (s *fileSnapshotStore) Load(ctx context.Context) ([]model.Service, error) {
	s.logger.Info().Str("file", s.path).Msg("loading catalog snapshot")

	file, err := os.Open(s.path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", s.path).Msg("failed to open catalog snapshot")
		return nil, fmt.Errorf("failed to open catalog snapshot %s: %w", s.path, err)
	}
	defer file.Close()

	services, err := decodeSnapshot(ctx, file)
	if err != nil {
		s.logger.Error().Err(err).Str("file", s.path).Msg("failed to decode catalog snapshot")
		return nil, fmt.Errorf("failed to decode catalog snapshot %s: %w", s.path, err)
	}

	s.logger.Info().
		Str("file", s.path).
		Int("services_loaded", len(services)).
		Msg("catalog snapshot loaded successfully")

	return services, nil
}

// Save writes the snapshot atomically through a temporary file.
func (s *fileSnapshotStore) Save(ctx context.Context, services []model.Service) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encodeSnapshot(tmp, services); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close catalog snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace catalog snapshot: %w", err)
	}

	s.logger.Debug().Str("file", s.path).Int("count", len(services)).Msg("catalog snapshot saved")
	return nil
}

// decodeSnapshot reads a gzipped JSON array of services.
func decodeSnapshot(ctx context.Context, r io.Reader) ([]model.Service, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var services []model.Service
	if err := json.NewDecoder(gzipReader).Decode(&services); err != nil {
		return nil, err
	}
	return services, nil
}

// encodeSnapshot writes services as a gzipped JSON array.
func encodeSnapshot(w io.Writer, services []model.Service) error {
	gzipWriter := gzip.NewWriter(w)
	if err := json.NewEncoder(gzipWriter).Encode(services); err != nil {
		gzipWriter.Close()
		return err
	}
	return gzipWriter.Close()
}
