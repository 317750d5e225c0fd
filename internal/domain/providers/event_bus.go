package providers

import (
	"context"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/redhope/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DonationEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DonationEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelDonationRequests receives every donation request event
	EventChannelDonationRequests = "donation_requests:updates"

	// EventChannelWilayaPrefix is the prefix for per-wilaya channels
	EventChannelWilayaPrefix = "wilaya:"

	// EventChannelRegionalPrefix is the prefix for geohash bucketed channels
	EventChannelRegionalPrefix = "region:"

	// RegionalGeohashPrecision gives cells of roughly 5x5 km
	RegionalGeohashPrecision = 5
)

// GetWilayaChannel returns the channel name for a wilaya code
func GetWilayaChannel(cityID string) string {
	return EventChannelWilayaPrefix + cityID
}

// GetRegionalChannel returns the channel name for the geohash cell containing lat/lng
func GetRegionalChannel(lat, lng float64) string {
	return EventChannelRegionalPrefix + RegionalGeohash(lat, lng)
}

// RegionalGeohash returns the geohash bucket used for regional channels
func RegionalGeohash(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, RegionalGeohashPrecision)
}
