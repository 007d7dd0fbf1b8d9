package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/korg1OOO/baratosociais/internal/cache"
	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/provider"

	"github.com/rs/zerolog"
)

// Catalog sources reported in model.CatalogStatus.
const (
	SourceProvider = "provider"
	SourceCache    = "cache"
	SourceSnapshot = "snapshot"
)

// catalogService implements CatalogService.
type catalogService struct {
	provider provider.Client
	cache    cache.CatalogCache
	snapshot catalog.SnapshotStore
	pricing  catalog.Pricing
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	// refreshMu serialises rebuilds so concurrent triggers share one provider call.
	refreshMu sync.Mutex

	mu       sync.RWMutex
	services []model.Service
	byID     map[string]int
	status   model.CatalogStatus
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	client provider.Client,
	catalogCache cache.CatalogCache,
	snapshot catalog.SnapshotStore,
	pricing catalog.Pricing,
	interval time.Duration,
	logger zerolog.Logger,
) CatalogService {
	if catalogCache == nil {
		catalogCache = cache.NopCache{}
	}
	return &catalogService{
		provider: client,
		cache:    catalogCache,
		snapshot: snapshot,
		pricing:  pricing,
		interval: interval,
		logger:   logger.With().Str("service", "catalog").Logger(),
		now:      time.Now,
		byID:     map[string]int{},
	}
}

// List returns the services matching q together with the refresh status.
func (s *catalogService) List(_ context.Context, q catalog.Query) model.CatalogListing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	services := catalog.Apply(s.services, q)
	if services == nil {
		services = []model.Service{}
	}
	return model.CatalogListing{Services: services, Status: s.status}
}

// Get retrieves a single service by its storefront ID.
func (s *catalogService) Get(_ context.Context, id string) (*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, model.ErrServiceNotFound
	}
	svc := s.services[i]
	return &svc, nil
}

// Status reports the outcome of the last refresh.
func (s *catalogService) Status() model.CatalogStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Load populates the catalog, preferring the shared cache over the provider.
func (s *catalogService) Load(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	services, err := s.cache.Get(ctx)
	if err == nil && len(services) > 0 {
		s.replace(services, SourceCache)
		s.logger.Info().Int("count", len(services)).Msg("catalog loaded from cache")
		return nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Msg("catalog cache unavailable")
	}

	return s.rebuild(ctx)
}

// Refresh rebuilds the catalog from the provider.
func (s *catalogService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	return s.rebuild(ctx)
}

// Run refreshes the catalog periodically until ctx is done. Replicas sharing a
// cache only call the provider once the cached copy expires.
func (s *catalogService) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Load(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("periodic catalog refresh failed")
			}
		}
	}
}

// rebuild fetches and maps the provider catalog. On failure the previous list
// is kept, or the last-known-good snapshot is loaded when there is none.
// Callers must hold refreshMu.
func (s *catalogService) rebuild(ctx context.Context) error {
	start := s.now()

	raws, err := s.provider.Services(ctx)
	if err == nil {
		services := catalog.MapAll(raws, s.pricing, s.logger)
		if len(services) == 0 {
			err = fmt.Errorf("provider returned %d services, none usable", len(raws))
		} else {
			s.replace(services, SourceProvider)
			s.persist(ctx, services)
			s.logger.Info().
				Int("count", len(services)).
				Dur("duration", s.now().Sub(start)).
				Msg("catalog refreshed from provider")
			return nil
		}
	}

	s.logger.Error().Err(err).Msg("catalog refresh failed")
	s.recordFailure(ctx, err)
	return model.ErrCatalogUnavailable.Wrap(err)
}

func (s *catalogService) recordFailure(ctx context.Context, cause error) {
	s.mu.RLock()
	empty := len(s.services) == 0
	s.mu.RUnlock()

	if empty && s.snapshot != nil {
		services, err := s.snapshot.Load(ctx)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("catalog snapshot unavailable")
		case len(services) > 0:
			s.replace(services, SourceSnapshot)
			s.logger.Info().Int("count", len(services)).Msg("catalog loaded from snapshot")
		}
	}

	s.mu.Lock()
	s.status.LastError = cause.Error()
	s.status.Retryable = true
	s.mu.Unlock()
}

func (s *catalogService) persist(ctx context.Context, services []model.Service) {
	if err := s.cache.Set(ctx, services); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache catalog")
	}
	if s.snapshot == nil {
		return
	}
	if err := s.snapshot.Save(ctx, services); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save catalog snapshot")
	}
}

func (s *catalogService) replace(services []model.Service, source string) {
	byID := make(map[string]int, len(services))
	for i, svc := range services {
		byID[svc.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.services = services
	s.byID = byID
	s.status = model.CatalogStatus{
		Count:       len(services),
		Source:      source,
		RefreshedAt: s.now().UTC().Format(time.RFC3339),
	}
}
