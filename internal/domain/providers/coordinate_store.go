package providers

import (
	"context"
	"errors"
	"time"

	"github.com/redhope/backend/internal/domain/entities"
)

// ErrNoSavedCoordinates is returned when nothing usable is stored for a key.
var ErrNoSavedCoordinates = errors.New("no saved coordinates")

// CoordinateStore keeps the last known position per key.
type CoordinateStore interface {
	// Save stores coord unless the stored generation is higher. ttl of zero
	// keeps the entry until overwritten. stored is false when the save was
	// ignored as stale.
	Save(ctx context.Context, key string, coord entities.Coordinate, generation int64, ttl time.Duration) (stored bool, err error)

	// Get returns the stored coordinate and its generation.
	Get(ctx context.Context, key string) (entities.Coordinate, int64, error)
}
