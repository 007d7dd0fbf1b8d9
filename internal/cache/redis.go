package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:services"

// maxJitter spreads expiry so replicas do not refresh in lockstep.
const maxJitter = 30 * time.Second

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context) ([]model.Service, error) {
	data, err := r.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var services []model.Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("unmarshal catalog failed: %w", err)
	}
	if len(services) == 0 {
		return nil, ErrCacheMiss
	}

	return services, nil
}

func (r *RedisCache) Set(ctx context.Context, services []model.Service) error {
	data, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("marshal catalog failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Int63n(int64(maxJitter)))
	if err := r.client.Set(ctx, catalogKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
