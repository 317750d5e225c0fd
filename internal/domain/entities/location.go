package entities

import (
	"fmt"
	"math"
	"time"
)

// Coordinate is a WGS84 point as sent by browsers and stored preferences.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both values are finite and within WGS84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// IsZero reports the {0,0} placeholder used when no location is known.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// String formats the pair with six decimals, the precision used for cache keys.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lng)
}

// Point converts the coordinate to a GeoJSON point.
func (c Coordinate) Point() GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{c.Lng, c.Lat}}
}

// GeoPoint is a GeoJSON Point; Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Coordinate converts the point back to lat/lng.
func (p GeoPoint) Coordinate() Coordinate {
	return Coordinate{Lat: p.Coordinates[1], Lng: p.Coordinates[0]}
}

// PositionFix is a browser geolocation reading.
type PositionFix struct {
	Coordinate
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// GeolocationErrorCode classifies browser geolocation failures.
type GeolocationErrorCode string

const (
	GeolocationPermissionDenied    GeolocationErrorCode = "PERMISSION_DENIED"
	GeolocationPositionUnavailable GeolocationErrorCode = "POSITION_UNAVAILABLE"
	GeolocationTimeout             GeolocationErrorCode = "TIMEOUT"
	GeolocationUnknown             GeolocationErrorCode = "UNKNOWN"
)

// ParseGeolocationErrorCode accepts the symbolic names and the numeric codes
// (1, 2, 3) of the W3C GeolocationPositionError.
func ParseGeolocationErrorCode(raw string) GeolocationErrorCode {
	switch raw {
	case "1", string(GeolocationPermissionDenied):
		return GeolocationPermissionDenied
	case "2", string(GeolocationPositionUnavailable):
		return GeolocationPositionUnavailable
	case "3", string(GeolocationTimeout):
		return GeolocationTimeout
	default:
		return GeolocationUnknown
	}
}

// Message returns the human-readable text shown to the user.
func (c GeolocationErrorCode) Message() string {
	switch c {
	case GeolocationPermissionDenied:
		return "Location permission denied"
	case GeolocationPositionUnavailable:
		return "Location information is unavailable"
	case GeolocationTimeout:
		return "Location request timed out"
	default:
		return "An unknown error occurred while getting location"
	}
}

// CityIDMethod records how a wilaya code was derived.
type CityIDMethod string

const (
	CityIDFromPostalCode CityIDMethod = "postal_code"
	CityIDFromStateName  CityIDMethod = "state_name"
	CityIDUnresolved     CityIDMethod = ""
)

// GeocodeDetails is the subset of geocoder components the app relies on.
type GeocodeDetails struct {
	Country      string       `json:"country,omitempty"`
	State        string       `json:"state,omitempty"`
	County       string       `json:"county,omitempty"`
	City         string       `json:"city,omitempty"`
	Hamlet       string       `json:"hamlet,omitempty"`
	PostalCode   string       `json:"postalCode,omitempty"`
	CityID       string       `json:"cityId,omitempty"`
	CityIDMethod CityIDMethod `json:"cityIdMethod,omitempty"`
}

// GeocodeResult is what reverse geocoding returns to callers. It is never
// nil and never an error: failures are encoded in Success/Error.
type GeocodeResult struct {
	Success    bool              `json:"success"`
	Error      bool              `json:"error,omitempty"`
	Message    string            `json:"message,omitempty"`
	Formatted  string            `json:"formatted,omitempty"`
	Components map[string]string `json:"components,omitempty"`
	Details    *GeocodeDetails   `json:"details,omitempty"`
	Cached     bool              `json:"cached,omitempty"`
}

// CityID returns the derived wilaya code or "".
func (r *GeocodeResult) CityID() string {
	if r == nil || r.Details == nil {
		return ""
	}
	return r.Details.CityID
}
