package repositories

import (
	"context"

	"github.com/redhope/backend/internal/domain/entities"
)

// WilayaRepository reads the province table maintained in the database.
type WilayaRepository interface {
	List(ctx context.Context) ([]*entities.Wilaya, error)
	GetByCode(ctx context.Context, code string) (*entities.Wilaya, error)
	GetByID(ctx context.Context, id string) (*entities.Wilaya, error)
}
