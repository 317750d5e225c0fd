package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultGeocodeLanguage is used when callers pass no language.
const DefaultGeocodeLanguage = "fr"

// DefaultGeocodeTimeout bounds a shared provider lookup when none is configured.
const DefaultGeocodeTimeout = 10 * time.Second

const geocodeCacheName = "geocode"

// ErrStaleLocation is returned by ResolveLatest when a newer resolution for
// the same session started before this one finished.
var ErrStaleLocation = errors.New("location result superseded by a newer request")

// GeocodeCacheKey builds the cache key for a coordinate pair and language.
func GeocodeCacheKey(lat, lng float64, language string) string {
	return fmt.Sprintf("geocode:%.6f,%.6f_%s", lat, lng, language)
}

// LocationServiceConfig tunes LocationService.
type LocationServiceConfig struct {
	DefaultLanguage string
	CacheTTL        time.Duration
	Timeout         time.Duration
}

// LocationService reverse geocodes coordinates and tags them with a wilaya code.
type LocationService struct {
	provider providers.GeocodingProvider
	cache    providers.CacheProvider
	resolver providers.RegionResolver
	metrics  *observability.Metrics
	cfg      LocationServiceConfig

	inflight singleflight.Group

	genMu       sync.Mutex
	genCounter  uint64
	generations map[string]uint64
}

// NewLocationService creates a new location service. cache and metrics may be nil.
func NewLocationService(
	provider providers.GeocodingProvider,
	cache providers.CacheProvider,
	resolver providers.RegionResolver,
	metrics *observability.Metrics,
	cfg LocationServiceConfig,
) *LocationService {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultGeocodeLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGeocodeTimeout
	}
	if resolver == nil {
		resolver = NewDefaultRegionResolver()
	}
	return &LocationService{
		provider:    provider,
		cache:       cache,
		resolver:    resolver,
		metrics:     metrics,
		cfg:         cfg,
		generations: make(map[string]uint64),
	}
}

// ReverseGeocode resolves lat/lng to an address. It never returns nil and
// never fails: invalid input and provider errors are reported in the result.
// Failures are not cached.
func (s *LocationService) ReverseGeocode(ctx context.Context, lat, lng float64, language string) *entities.GeocodeResult {
	coord := entities.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return &entities.GeocodeResult{Success: false, Message: "Invalid coordinates"}
	}
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	ctx, span := observability.StartSpan(ctx, "LocationService.ReverseGeocode",
		attribute.String("geocode.language", language))
	defer span.End()

	key := GeocodeCacheKey(lat, lng, language)
	if cached, ok := s.fromCache(ctx, key); ok {
		span.SetAttributes(attribute.Bool("geocode.cached", true))
		return cached
	}

	// The lookup is shared by every caller waiting on key, so it must not
	// inherit one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		return s.lookup(shared, coord, language, key), nil
	})
	select {
	case res := <-ch:
		result := *res.Val.(*entities.GeocodeResult)
		return &result
	case <-ctx.Done():
		return &entities.GeocodeResult{
			Success:   false,
			Error:     true,
			Message:   ctx.Err().Error(),
			Formatted: coord.String(),
		}
	}
}

func (s *LocationService) lookup(ctx context.Context, coord entities.Coordinate, language, key string) *entities.GeocodeResult {
	logger := observability.LoggerFromContext(ctx)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	addr, err := s.provider.ReverseGeocode(callCtx, coord.Lat, coord.Lng, language)
	observability.RecordGeocode(ctx, s.metrics, s.provider.Name(), err == nil, time.Since(start))
	if err != nil {
		logger.Warn().Err(err).Str("provider", s.provider.Name()).Msg("reverse geocoding failed")
		return &entities.GeocodeResult{
			Success:   false,
			Error:     true,
			Message:   err.Error(),
			Formatted: coord.String(),
		}
	}

	details := &entities.GeocodeDetails{
		Country:    addr.Country,
		State:      addr.State,
		County:     addr.County,
		City:       addr.City,
		Hamlet:     addr.Hamlet,
		PostalCode: addr.PostalCode,
	}
	if code, method, ok := s.resolver.ResolveRegion(addr); ok {
		details.CityID = code
		details.CityIDMethod = method
	}

	formatted := addr.Formatted
	if formatted == "" {
		formatted = coord.String()
	}
	result := &entities.GeocodeResult{
		Success:    true,
		Formatted:  formatted,
		Components: addr.Components,
		Details:    details,
	}
	s.store(ctx, key, result)
	return result
}

func (s *LocationService) fromCache(ctx context.Context, key string) (*entities.GeocodeResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, geocodeCacheName)
		return nil, false
	}
	var result entities.GeocodeResult
	if err := json.Unmarshal(data, &result); err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, geocodeCacheName)
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, geocodeCacheName)
	result.Cached = true
	return &result, true
}

func (s *LocationService) store(ctx context.Context, key string, result *entities.GeocodeResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, int(s.cfg.CacheTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache geocode result")
	}
}

// FormatLocation returns the geocoded address or "lat, lng" when geocoding fails.
func (s *LocationService) FormatLocation(ctx context.Context, coord entities.Coordinate, language string) string {
	result := s.ReverseGeocode(ctx, coord.Lat, coord.Lng, language)
	if result.Success && result.Formatted != "" {
		return result.Formatted
	}
	return coord.String()
}

// ResolveCityID returns the wilaya code for coord, or "" for the {0,0}
// placeholder, invalid input or a failed lookup.
func (s *LocationService) ResolveCityID(ctx context.Context, coord entities.Coordinate, language string) string {
	if coord.IsZero() || !coord.Valid() {
		return ""
	}
	return s.ReverseGeocode(ctx, coord.Lat, coord.Lng, language).CityID()
}

// ResolveLatest geocodes coord on behalf of sessionKey. When another call for
// the same session starts before this one returns, this result is dropped
// with ErrStaleLocation so an older answer never replaces a newer one.
func (s *LocationService) ResolveLatest(ctx context.Context, sessionKey string, coord entities.Coordinate, language string) (*entities.GeocodeResult, error) {
	gen := s.nextGeneration(sessionKey)

	result := s.ReverseGeocode(ctx, coord.Lat, coord.Lng, language)
	if err := ctx.Err(); err != nil {
		s.finishGeneration(sessionKey, gen)
		return nil, err
	}
	if !s.finishGeneration(sessionKey, gen) {
		return nil, ErrStaleLocation
	}
	return result, nil
}

func (s *LocationService) nextGeneration(sessionKey string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	// globally increasing so a forgotten session cannot reuse a number
	s.genCounter++
	s.generations[sessionKey] = s.genCounter
	return s.genCounter
}

// finishGeneration reports whether gen is still the latest and forgets the
// session when it is.
func (s *LocationService) finishGeneration(sessionKey string, gen uint64) bool {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[sessionKey] != gen {
		return false
	}
	delete(s.generations, sessionKey)
	return true
}
