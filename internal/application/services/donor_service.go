package services

import (
	"context"
	"sort"

	"github.com/golang/geo/s2"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/domain/repositories"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/wilaya"
)

const (
	earthRadiusKm = 6371.0088

	defaultDonorSearchLimit = 20
	maxDonorSearchLimit     = 100

	// donors fetched from the database before distance filtering
	donorCandidatePool = 500
)

// DonorSearchParams narrows a donor search. Either a position or a wilaya is required.
type DonorSearchParams struct {
	Lat       *float64
	Lng       *float64
	RadiusKm  float64
	BloodType string
	CityID    string
	Limit     int
}

// DonorMatch is a donor as shown to the public. Contact details stay hidden.
type DonorMatch struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	BloodType  entities.BloodType  `json:"bloodType"`
	CityID     string              `json:"cityId"`
	Location   entities.Coordinate `json:"location"`
	Geohash    string              `json:"geohash,omitempty"`
	DistanceKm *float64            `json:"distanceKm,omitempty"`
}

// DonorService finds available donors
type DonorService struct {
	users repositories.UserRepository
}

// NewDonorService creates a new donor service
func NewDonorService(users repositories.UserRepository) *DonorService {
	return &DonorService{users: users}
}

// SearchNearby returns available donors whose blood a recipient of
// params.BloodType can receive, nearest first when a position is given.
func (s *DonorService) SearchNearby(ctx context.Context, params DonorSearchParams) ([]DonorMatch, error) {
	var origin *entities.Coordinate
	if params.Lat != nil && params.Lng != nil {
		c := entities.Coordinate{Lat: *params.Lat, Lng: *params.Lng}
		if !c.Valid() {
			return nil, apperrors.NewValidationError("Invalid coordinates")
		}
		origin = &c
	}

	filter := repositories.UserFilter{
		DonorsOnly:  true,
		OnlyVisible: true,
		Limit:       donorCandidatePool,
	}
	if params.CityID != "" {
		code, ok := wilaya.NormalizeCode(params.CityID)
		if !ok {
			return nil, apperrors.NewValidationError("invalid cityId")
		}
		filter.CityID = code
	}
	if origin == nil && filter.CityID == "" {
		return nil, apperrors.NewValidationError("lat/lng or cityId is required")
	}
	if params.BloodType != "" {
		bt, ok := entities.ParseBloodType(params.BloodType)
		if !ok {
			return nil, apperrors.NewValidationError("invalid blood type")
		}
		filter.BloodTypes = bt.CompatibleDonors()
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultDonorSearchLimit
	}
	if limit > maxDonorSearchLimit {
		limit = maxDonorSearchLimit
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	matches := make([]DonorMatch, 0, len(users))
	for _, u := range users {
		m := DonorMatch{
			ID:        u.ID,
			Name:      u.Name,
			BloodType: u.BloodType,
			CityID:    u.CityID,
			Location:  u.Location.Coordinate(),
		}
		if !m.Location.IsZero() {
			m.Geohash = providers.RegionalGeohash(m.Location.Lat, m.Location.Lng)
		}
		if origin != nil {
			if m.Location.IsZero() {
				if params.RadiusKm > 0 {
					continue
				}
			} else {
				d := DistanceKm(*origin, m.Location)
				if params.RadiusKm > 0 && d > params.RadiusKm {
					continue
				}
				m.DistanceKm = &d
			}
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].DistanceKm, matches[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b entities.Coordinate) float64 {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))
	return angle.Radians() * earthRadiusKm
}
