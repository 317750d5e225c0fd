package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	redisclient "github.com/redhope/backend/internal/infrastructure/clients/redis"
	"github.com/redis/go-redis/v9"
)

// saveIfNewer writes lat/lng/gen unless the stored gen is greater.
// ARGV: lat, lng, gen, ttl in milliseconds (0 persists).
var saveIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'gen')
if current and tonumber(current) > tonumber(ARGV[3]) then
  return 0
end
redis.call('HSET', KEYS[1], 'lat', ARGV[1], 'lng', ARGV[2], 'gen', ARGV[3])
if tonumber(ARGV[4]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
else
  redis.call('PERSIST', KEYS[1])
end
return 1
`)

// RedisCoordinateStore implements providers.CoordinateStore with one hash per key
type RedisCoordinateStore struct {
	client *redisclient.Client
	prefix string
}

// NewRedisCoordinateStore creates a coordinate store under prefix.
func NewRedisCoordinateStore(client *redisclient.Client, prefix string) *RedisCoordinateStore {
	return &RedisCoordinateStore{client: client, prefix: prefix}
}

// Save implements providers.CoordinateStore
func (s *RedisCoordinateStore) Save(ctx context.Context, key string, coord entities.Coordinate, generation int64, ttl time.Duration) (bool, error) {
	res, err := saveIfNewer.Run(ctx, s.client.Client(), []string{s.prefix + key},
		strconv.FormatFloat(coord.Lat, 'f', -1, 64),
		strconv.FormatFloat(coord.Lng, 'f', -1, 64),
		generation,
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to save coordinates: %w", err)
	}
	return res == 1, nil
}

// Get implements providers.CoordinateStore
func (s *RedisCoordinateStore) Get(ctx context.Context, key string) (entities.Coordinate, int64, error) {
	values, err := s.client.Client().HGetAll(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(values) == 0) {
		return entities.Coordinate{}, 0, providers.ErrNoSavedCoordinates
	}
	if err != nil {
		return entities.Coordinate{}, 0, fmt.Errorf("failed to read coordinates: %w", err)
	}

	lat, errLat := strconv.ParseFloat(values["lat"], 64)
	lng, errLng := strconv.ParseFloat(values["lng"], 64)
	gen, errGen := strconv.ParseInt(values["gen"], 10, 64)
	if err := errors.Join(errLat, errLng, errGen); err != nil {
		return entities.Coordinate{}, 0, fmt.Errorf("corrupt coordinates for %s: %w", key, err)
	}
	return entities.Coordinate{Lat: lat, Lng: lng}, gen, nil
}
