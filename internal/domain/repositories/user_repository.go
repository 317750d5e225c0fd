package repositories

import (
	"context"

	"github.com/redhope/backend/internal/domain/entities"
)

// UserFilter narrows user listings.
type UserFilter struct {
	CityID      string
	DonorsOnly  bool
	BloodTypes  []entities.BloodType
	OnlyVisible bool
	Limit       int
	Offset      int
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// List retrieves users matching filter
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)

	// Update updates a user
	Update(ctx context.Context, user *entities.User) error

	// Delete deletes a user
	Delete(ctx context.Context, id string) error
}

// AdminRepository defines the interface for admin data operations
type AdminRepository interface {
	Create(ctx context.Context, admin *entities.Admin) error
	GetByID(ctx context.Context, id string) (*entities.Admin, error)
	GetByEmail(ctx context.Context, email string) (*entities.Admin, error)
	List(ctx context.Context, limit, offset int) ([]*entities.Admin, error)
	Update(ctx context.Context, admin *entities.Admin) error
	Delete(ctx context.Context, id string) error
}
