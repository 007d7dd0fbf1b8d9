package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used by the snapshot store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3SnapshotStore implements SnapshotStore for a gzipped JSON object in AWS S3.
type s3SnapshotStore struct {
	client S3API
	bucket string
	key    string
	logger zerolog.Logger
}

// NewS3SnapshotStore creates an S3-backed snapshot store using the default AWS credential chain.
func NewS3SnapshotStore(ctx context.Context, bucket, region, key string, logger zerolog.Logger) (SnapshotStore, error) {
	logger = logger.With().Str("component", "catalog-snapshot-s3").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("key", key).
		Msg("S3 snapshot store initialised")

	return NewS3SnapshotStoreWithClient(s3.NewFromConfig(cfg), bucket, key, logger), nil
}

// NewS3SnapshotStoreWithClient creates an S3 snapshot store with an existing client.
func NewS3SnapshotStoreWithClient(client S3API, bucket, key string, logger zerolog.Logger) SnapshotStore {
	return &s3SnapshotStore{
		client: client,
		bucket: bucket,
		key:    key,
		logger: logger,
	}
}

// Load reads the snapshot object from S3.
func (s *s3SnapshotStore) Load(ctx context.Context) ([]model.Service, error) {
	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", s.key).
		Msg("loading catalog snapshot from S3")

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", s.key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, s.key, err)
	}
	defer result.Body.Close()

	services, err := decodeSnapshot(ctx, result.Body)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", s.key).
			Msg("failed to decode catalog snapshot from S3")
		return nil, fmt.Errorf("failed to decode S3 snapshot %s: %w", s.key, err)
	}

	s.logger.Info().
		Str("key", s.key).
		Int("services_loaded", len(services)).
		Msg("catalog snapshot loaded successfully from S3")

	return services, nil
}

// Save uploads the snapshot object to S3.
func (s *s3SnapshotStore) Save(ctx context.Context, services []model.Service) error {
	var buf bytes.Buffer
	if err := encodeSnapshot(&buf, services); err != nil {
		return fmt.Errorf("failed to encode catalog snapshot: %w", err)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(s.key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("failed to put catalog snapshot to S3")
		return fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, s.key, err)
	}

	s.logger.Debug().Str("key", s.key).Int("count", len(services)).Msg("catalog snapshot uploaded")
	return nil
}

// fallbackSnapshotStore reads from S3 first and falls back to the local file.
// Saves go to both stores.
type fallbackSnapshotStore struct {
	remote    SnapshotStore
	local     SnapshotStore
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackSnapshotStore creates a store that tries remote first, then local.
// If remote is nil or S3 is disabled, only the local store is used.
func NewFallbackSnapshotStore(remote, local SnapshotStore, s3Enabled bool, logger zerolog.Logger) SnapshotStore {
	return &fallbackSnapshotStore{
		remote:    remote,
		local:     local,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "catalog-snapshot-fallback").Logger(),
	}
}

func (f *fallbackSnapshotStore) useRemote() bool {
	return f.s3Enabled && f.remote != nil
}

// Load attempts the remote store first, then the local one.
func (f *fallbackSnapshotStore) Load(ctx context.Context) ([]model.Service, error) {
	if f.useRemote() {
		services, err := f.remote.Load(ctx)
		if err == nil {
			return services, nil
		}

		f.logger.Warn().
			Err(err).
			Msg("failed to load snapshot from S3, falling back to local file system")
	} else {
		f.logger.Debug().
			Bool("s3_enabled", f.s3Enabled).
			Bool("has_remote", f.remote != nil).
			Msg("S3 disabled or not configured, using local file system")
	}

	return f.local.Load(ctx)
}

// Save writes to every configured store and fails only if all of them fail.
func (f *fallbackSnapshotStore) Save(ctx context.Context, services []model.Service) error {
	var errs []error

	if f.useRemote() {
		if err := f.remote.Save(ctx, services); err != nil {
			f.logger.Warn().Err(err).Msg("failed to save snapshot to S3")
			errs = append(errs, err)
		}
	}

	if err := f.local.Save(ctx, services); err != nil {
		f.logger.Warn().Err(err).Msg("failed to save snapshot to local file system")
		errs = append(errs, err)
	}

	attempted := 1
	if f.useRemote() {
		attempted = 2
	}
	if len(errs) == attempted {
		return errors.Join(errs...)
	}
	return nil
}
