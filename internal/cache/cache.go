package cache

import (
	"context"
	"errors"

	"github.com/korg1OOO/baratosociais/internal/model"
)

// CatalogCache shares the mapped catalog between replicas.
type CatalogCache interface {
	Get(ctx context.Context) ([]model.Service, error)
	Set(ctx context.Context, services []model.Service) error
	Delete(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache never holds anything. It is used when Redis is disabled.
type NopCache struct{}

func (NopCache) Get(context.Context) ([]model.Service, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, []model.Service) error { return nil }
func (NopCache) Delete(context.Context) error { return nil }
