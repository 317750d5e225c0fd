package services

import (
	"context"
	"strings"
	"time"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/observability"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/phone"
	"github.com/redhope/backend/pkg/wilaya"
)

// CityLocator derives a wilaya code from coordinates.
type CityLocator interface {
	ResolveCityID(ctx context.Context, coord entities.Coordinate, language string) string
}

// GuestInput is the payload of a guest registration or location update.
type GuestInput struct {
	PhoneNumber string            `json:"phoneNumber"`
	Location    entities.GeoPoint `json:"location"`
	CityID      string            `json:"cityId"`
}

// GuestService manages unauthenticated visitors identified by phone number
type GuestService struct {
	repo    repositories.GuestRepository
	locator CityLocator
	now     func() time.Time
}

// NewGuestService creates a new guest service. locator may be nil.
func NewGuestService(repo repositories.GuestRepository, locator CityLocator) *GuestService {
	return &GuestService{repo: repo, locator: locator, now: time.Now}
}

// Register upserts the guest with this phone number. IsNewAccount is true
// only when a record was created.
func (s *GuestService) Register(ctx context.Context, input GuestInput) (*entities.GuestRegistration, error) {
	number := phone.Normalize(input.PhoneNumber)
	if number == "" {
		return nil, apperrors.NewValidationError("invalid phone number")
	}
	location, cityID, err := s.resolvePlace(ctx, input.Location, input.CityID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	guest := &entities.Guest{
		PhoneNumber: number,
		Location:    location,
		CityID:      cityID,
		LastActive:  now,
		CreatedAt:   now,
	}
	saved, inserted, err := s.repo.Upsert(ctx, guest)
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("guest_id", saved.ID).
		Bool("new_account", inserted).
		Str("city_id", saved.CityID).
		Msg("guest registered")

	return &entities.GuestRegistration{Guest: saved, IsNewAccount: inserted}, nil
}

// GetByPhone retrieves a guest by any formatting of their phone number
func (s *GuestService) GetByPhone(ctx context.Context, raw string) (*entities.Guest, error) {
	number := phone.Normalize(raw)
	if number == "" {
		return nil, apperrors.NewValidationError("invalid phone number")
	}
	return s.repo.GetByPhone(ctx, number)
}

// GetByID retrieves a guest by ID
func (s *GuestService) GetByID(ctx context.Context, id string) (*entities.Guest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("guest id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateLocation refreshes location, city and last activity of a guest
func (s *GuestService) UpdateLocation(ctx context.Context, guestID string, location entities.GeoPoint, cityID string) (*entities.Guest, error) {
	if strings.TrimSpace(guestID) == "" {
		return nil, apperrors.NewValidationError("guest id is required")
	}
	location, cityID, err := s.resolvePlace(ctx, location, cityID)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateLocation(ctx, guestID, location, cityID)
}

// resolvePlace validates a GeoJSON point and fills in the wilaya code when
// the caller did not send one.
func (s *GuestService) resolvePlace(ctx context.Context, location entities.GeoPoint, rawCityID string) (entities.GeoPoint, string, error) {
	if location.Type == "" {
		location.Type = "Point"
	}
	if location.Type != "Point" {
		return location, "", apperrors.NewValidationError("location must be a GeoJSON Point")
	}
	coord := location.Coordinate()
	if !coord.Valid() {
		return location, "", apperrors.NewValidationError("Invalid coordinates")
	}

	var cityID string
	if strings.TrimSpace(rawCityID) != "" {
		code, ok := wilaya.NormalizeCode(rawCityID)
		if !ok {
			return location, "", apperrors.NewValidationError("invalid cityId")
		}
		cityID = code
	}
	if cityID == "" && s.locator != nil && !coord.IsZero() {
		cityID = s.locator.ResolveCityID(ctx, coord, "")
	}
	return location, cityID, nil
}
