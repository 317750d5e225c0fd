package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/rs/zerolog/log"
)

// CachedWilayaAdapter wraps a WilayaRepository with a read-through cache.
// Wilayas change only on reseeding, so entries live for a day.
type CachedWilayaAdapter struct {
	adapter repositories.WilayaRepository
	cache   providers.CacheProvider
}

// NewCachedWilayaAdapter creates a new cached wilaya adapter
func NewCachedWilayaAdapter(adapter repositories.WilayaRepository, cache providers.CacheProvider) repositories.WilayaRepository {
	return &CachedWilayaAdapter{adapter: adapter, cache: cache}
}

const wilayaTTL = 24 * 60 * 60

const wilayaListCacheKey = "wilayas:list"

func wilayaCodeCacheKey(code string) string {
	return fmt.Sprintf("wilaya:code:%s", code)
}

func wilayaIDCacheKey(id string) string {
	return fmt.Sprintf("wilaya:id:%s", id)
}

// List returns every wilaya with caching
func (a *CachedWilayaAdapter) List(ctx context.Context) ([]*entities.Wilaya, error) {
	var cached []*entities.Wilaya
	if a.load(ctx, wilayaListCacheKey, &cached) {
		return cached, nil
	}
	list, err := a.adapter.List(ctx)
	if err != nil {
		return nil, err
	}
	a.store(ctx, wilayaListCacheKey, list)
	return list, nil
}

// GetByCode retrieves a wilaya by code with caching
func (a *CachedWilayaAdapter) GetByCode(ctx context.Context, code string) (*entities.Wilaya, error) {
	key := wilayaCodeCacheKey(code)
	var cached entities.Wilaya
	if a.load(ctx, key, &cached) {
		return &cached, nil
	}
	w, err := a.adapter.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	a.store(ctx, key, w)
	return w, nil
}

// GetByID retrieves a wilaya by ID with caching
func (a *CachedWilayaAdapter) GetByID(ctx context.Context, id string) (*entities.Wilaya, error) {
	key := wilayaIDCacheKey(id)
	var cached entities.Wilaya
	if a.load(ctx, key, &cached) {
		return &cached, nil
	}
	w, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.store(ctx, key, w)
	return w, nil
}

func (a *CachedWilayaAdapter) load(ctx context.Context, key string, dst interface{}) bool {
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to unmarshal cached wilaya")
		return false
	}
	return true
}

func (a *CachedWilayaAdapter) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, wilayaTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache wilaya")
	}
}
