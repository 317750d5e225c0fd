package services

import (
	"context"
	"errors"
	"time"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	apperrors "github.com/redhope/backend/pkg/errors"
)

// CoordinateOwner identifies whose position is saved: a signed-in user
// (kept until overwritten) or a guest session (expires).
type CoordinateOwner struct {
	UserID    string
	SessionID string
}

func (o CoordinateOwner) key() (string, error) {
	switch {
	case o.UserID != "":
		return "coords:user:" + o.UserID, nil
	case o.SessionID != "":
		return "coords:session:" + o.SessionID, nil
	default:
		return "", apperrors.NewValidationError("user or session id is required")
	}
}

// SavedCoordinates is a stored position with the generation that wrote it.
type SavedCoordinates struct {
	entities.Coordinate
	Generation int64 `json:"generation"`
}

// CoordinateService persists the last known position of users and guests.
type CoordinateService struct {
	store      providers.CoordinateStore
	sessionTTL time.Duration
	now        func() time.Time
}

// NewCoordinateService creates a new coordinate service
func NewCoordinateService(store providers.CoordinateStore, sessionTTL time.Duration) *CoordinateService {
	return &CoordinateService{store: store, sessionTTL: sessionTTL, now: time.Now}
}

// SaveCoordinates stores coord for owner. The {0,0} placeholder is never
// stored. A generation of 0 is replaced by the current time in milliseconds.
// stored is false when a newer generation is already saved.
func (s *CoordinateService) SaveCoordinates(ctx context.Context, owner CoordinateOwner, coord entities.Coordinate, generation int64) (bool, error) {
	key, err := owner.key()
	if err != nil {
		return false, err
	}
	if !coord.Valid() {
		return false, apperrors.NewValidationError("Invalid coordinates")
	}
	if coord.IsZero() {
		return false, nil
	}
	if generation <= 0 {
		generation = s.now().UnixMilli()
	}

	var ttl time.Duration
	if owner.UserID == "" {
		ttl = s.sessionTTL
	}
	stored, err := s.store.Save(ctx, key, coord, generation, ttl)
	if err != nil {
		return false, apperrors.NewInternalError("failed to save coordinates", err)
	}
	return stored, nil
}

// GetSavedCoordinates returns the stored position or a not found error.
func (s *CoordinateService) GetSavedCoordinates(ctx context.Context, owner CoordinateOwner) (*SavedCoordinates, error) {
	key, err := owner.key()
	if err != nil {
		return nil, err
	}
	coord, gen, err := s.store.Get(ctx, key)
	if errors.Is(err, providers.ErrNoSavedCoordinates) || (err == nil && coord.IsZero()) {
		return nil, apperrors.NewNotFoundError("no saved location")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read coordinates", err)
	}
	return &SavedCoordinates{Coordinate: coord, Generation: gen}, nil
}
