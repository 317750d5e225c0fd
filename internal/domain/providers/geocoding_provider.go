package providers

import (
	"context"

	"github.com/redhope/backend/internal/domain/entities"
)

// GeocodingProvider converts coordinates to an address.
type GeocodingProvider interface {
	// ReverseGeocode resolves lat/lng in the given language ("fr", "ar", "en").
	ReverseGeocode(ctx context.Context, lat, lng float64, language string) (*GeocodedAddress, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// GeocodedAddress is the first result of a reverse geocoding call.
type GeocodedAddress struct {
	Formatted  string            `json:"formatted"`
	Components map[string]string `json:"components"`
	Country    string            `json:"country"`
	State      string            `json:"state"`
	County     string            `json:"county"`
	City       string            `json:"city"`
	Hamlet     string            `json:"hamlet"`
	PostalCode string            `json:"postalCode"`
}

// RegionResolver derives a wilaya code from a geocoded address.
type RegionResolver interface {
	// ResolveRegion returns the two-digit code and how it was found. ok is
	// false when the resolver has no opinion.
	ResolveRegion(addr *GeocodedAddress) (code string, method entities.CityIDMethod, ok bool)
}
