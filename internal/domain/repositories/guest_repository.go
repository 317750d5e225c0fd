package repositories

import (
	"context"

	"github.com/redhope/backend/internal/domain/entities"
)

// GuestRepository defines the interface for guest data operations
type GuestRepository interface {
	// Upsert inserts a guest or refreshes location, city and last activity of
	// the guest with the same phone number. The returned flag is true on insert.
	Upsert(ctx context.Context, guest *entities.Guest) (*entities.Guest, bool, error)

	// GetByID retrieves a guest by ID
	GetByID(ctx context.Context, id string) (*entities.Guest, error)

	// GetByPhone retrieves a guest by normalized phone number
	GetByPhone(ctx context.Context, phone string) (*entities.Guest, error)

	// UpdateLocation updates location, city and last activity
	UpdateLocation(ctx context.Context, id string, location entities.GeoPoint, cityID string) (*entities.Guest, error)
}
