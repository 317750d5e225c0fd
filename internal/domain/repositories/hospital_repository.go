package repositories

import (
	"context"

	"github.com/redhope/backend/internal/domain/entities"
)

// HospitalFilter narrows hospital listings.
type HospitalFilter struct {
	CityID           string
	BloodCentersOnly bool
	Limit            int
	Offset           int
}

// HospitalRepository defines the interface for hospital data operations
type HospitalRepository interface {
	Create(ctx context.Context, hospital *entities.Hospital) error
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)
	List(ctx context.Context, filter HospitalFilter) ([]*entities.Hospital, error)
	Update(ctx context.Context, hospital *entities.Hospital) error
	Delete(ctx context.Context, id string) error
}
