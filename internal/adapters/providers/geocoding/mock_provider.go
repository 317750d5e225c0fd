package geocoding

import (
	"context"
	"fmt"

	"github.com/redhope/backend/internal/domain/providers"
)

// MockProvider returns canned Algerian addresses for local development.
// The nearest known city to the query wins.
type MockProvider struct{}

// NewMockProvider creates a new mock geocoding provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var _ providers.GeocodingProvider = (*MockProvider)(nil)

type mockPlace struct {
	lat, lng   float64
	city       string
	state      string
	postalCode string
}

var mockPlaces = []mockPlace{
	{36.7538, 3.0588, "Alger", "Alger", "16000"},
	{35.6971, -0.6308, "Oran", "Oran", "31000"},
	{36.3650, 6.6147, "Constantine", "Constantine", "25000"},
	{36.7509, 5.0567, "Béjaïa", "Béjaïa", "06000"},
	{36.1898, 5.4108, "Sétif", "Sétif", "19000"},
	{31.9539, 5.3336, "Ouargla", "Ouargla", "30000"},
}

// Name identifies the provider
func (m *MockProvider) Name() string {
	return "mock"
}

// ReverseGeocode returns the closest canned place
func (m *MockProvider) ReverseGeocode(ctx context.Context, lat, lng float64, language string) (*providers.GeocodedAddress, error) {
	best := mockPlaces[0]
	bestDist := -1.0
	for _, p := range mockPlaces {
		d := (p.lat-lat)*(p.lat-lat) + (p.lng-lng)*(p.lng-lng)
		if bestDist < 0 || d < bestDist {
			best, bestDist = p, d
		}
	}

	return &providers.GeocodedAddress{
		Formatted: fmt.Sprintf("%s, %s, Algérie", best.city, best.postalCode),
		Components: map[string]string{
			"city":     best.city,
			"state":    best.state,
			"postcode": best.postalCode,
			"country":  "Algérie",
		},
		Country:    "Algérie",
		State:      best.state,
		City:       best.city,
		PostalCode: best.postalCode,
	}, nil
}
