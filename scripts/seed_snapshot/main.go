package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/config"
	"github.com/korg1OOO/baratosociais/internal/provider"

	"github.com/shopspring/decimal"
)

// seed_snapshot fetches the provider catalog once and writes it as the
// last-known-good snapshot, so a fresh deployment has a fallback listing
// before its first successful refresh.
func main() {
	out := flag.String("out", "", "snapshot file (defaults to CATALOG_SNAPSHOT_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raws, err := provider.NewClient(cfg.Provider, logger).Services(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to fetch provider services")
	}

	pricing := catalog.Pricing{
		Markup:           decimal.NewFromFloat(cfg.Pricing.Markup),
		PopularThreshold: decimal.NewFromFloat(cfg.Pricing.PopularThreshold),
	}
	services := catalog.MapAll(raws, pricing, logger)
	if len(services) == 0 {
		logger.Fatal().Int("raw", len(raws)).Msg("no usable services to snapshot")
	}

	snapshotPath := cfg.Catalog.SnapshotPath
	if *out != "" {
		snapshotPath = *out
	}
	if err := os.MkdirAll(filepath.Dir(snapshotPath), 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create snapshot directory")
	}

	var remote catalog.SnapshotStore
	if cfg.S3.Enabled {
		remote, err = catalog.NewS3SnapshotStore(ctx, cfg.S3.Bucket, cfg.S3.Region, path.Join(cfg.S3.Prefix, "services.json.gz"), logger)
		if err != nil {
			logger.Warn().Err(err).Msg("S3 unavailable, writing local snapshot only")
			remote = nil
		}
	}

	store := catalog.NewFallbackSnapshotStore(remote, catalog.NewFileSnapshotStore(snapshotPath, logger), cfg.S3.Enabled, logger)
	if err := store.Save(ctx, services); err != nil {
		logger.Fatal().Err(err).Msg("failed to save snapshot")
	}

	fmt.Printf("Wrote %d of %d provider services to %s\n", len(services), len(raws), snapshotPath)
}
