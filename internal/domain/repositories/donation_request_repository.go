package repositories

import (
	"context"
	"time"

	"github.com/redhope/backend/internal/domain/entities"
)

// DonationRequestFilter narrows list queries.
type DonationRequestFilter struct {
	DonorID string
	CityID  string
	Status  entities.DonationRequestStatus
	Limit   int
	Offset  int
}

// DonationRequestRepository defines the interface for donation request persistence
type DonationRequestRepository interface {
	Create(ctx context.Context, request *entities.DonationRequest) error
	GetByID(ctx context.Context, id string) (*entities.DonationRequest, error)
	List(ctx context.Context, filter DonationRequestFilter) ([]*entities.DonationRequest, error)

	// UpdateStatus moves a request from one status to another. It returns a
	// conflict error when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to entities.DonationRequestStatus) (*entities.DonationRequest, error)

	// ExpireBefore marks every Active request expiring before cutoff as Expired
	// and returns the affected requests.
	ExpireBefore(ctx context.Context, cutoff time.Time) ([]*entities.DonationRequest, error)
}
