package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/phone"
	"github.com/redhope/backend/pkg/wilaya"
)

// HospitalInput carries hospital fields; nil pointers are left unchanged on update.
type HospitalInput struct {
	Name          *string            `json:"name"`
	Address       *string            `json:"address"`
	Phone         *string            `json:"phone"`
	Email         *string            `json:"email"`
	CityID        *string            `json:"cityId"`
	Location      *entities.GeoPoint `json:"location"`
	IsBloodCenter *bool              `json:"isBloodCenter"`
}

// HospitalService manages hospitals and blood centers
type HospitalService struct {
	repo repositories.HospitalRepository
	now  func() time.Time
}

// NewHospitalService creates a new hospital service
func NewHospitalService(repo repositories.HospitalRepository) *HospitalService {
	return &HospitalService{repo: repo, now: time.Now}
}

// Create validates and stores a hospital
func (s *HospitalService) Create(ctx context.Context, input HospitalInput) (*entities.Hospital, error) {
	now := s.now().UTC()
	hospital := &entities.Hospital{
		ID:        uuid.NewString(),
		Location:  entities.Coordinate{}.Point(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyHospitalInput(hospital, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, hospital); err != nil {
		return nil, err
	}
	return hospital, nil
}

// GetByID retrieves a hospital by ID
func (s *HospitalService) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists hospitals
func (s *HospitalService) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error) {
	if filter.CityID != "" {
		code, ok := wilaya.NormalizeCode(filter.CityID)
		if !ok {
			return nil, apperrors.NewValidationError("invalid cityId")
		}
		filter.CityID = code
	}
	return s.repo.List(ctx, filter)
}

// ListBloodCenters lists hospitals flagged as blood centers
func (s *HospitalService) ListBloodCenters(ctx context.Context, cityID string) ([]*entities.Hospital, error) {
	return s.List(ctx, repositories.HospitalFilter{CityID: cityID, BloodCentersOnly: true})
}

// Update applies the non-nil fields of input
func (s *HospitalService) Update(ctx context.Context, id string, input HospitalInput) (*entities.Hospital, error) {
	hospital, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyHospitalInput(hospital, input); err != nil {
		return nil, err
	}
	hospital.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, hospital); err != nil {
		return nil, err
	}
	return hospital, nil
}

// Delete deletes a hospital
func (s *HospitalService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func applyHospitalInput(h *entities.Hospital, input HospitalInput) error {
	if input.Name != nil {
		h.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		h.Address = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		h.Phone = phone.Normalize(*input.Phone)
		if h.Phone == "" && strings.TrimSpace(*input.Phone) != "" {
			return apperrors.NewValidationError("invalid phone number")
		}
	}
	if input.Email != nil {
		h.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.CityID != nil {
		code, ok := wilaya.NormalizeCode(*input.CityID)
		if !ok {
			return apperrors.NewValidationError("invalid cityId")
		}
		h.CityID = code
	}
	if input.Location != nil {
		loc := *input.Location
		loc.Type = "Point"
		if !loc.Coordinate().Valid() {
			return apperrors.NewValidationError("Invalid coordinates")
		}
		h.Location = loc
	}
	if input.IsBloodCenter != nil {
		h.IsBloodCenter = *input.IsBloodCenter
	}

	switch {
	case h.Name == "":
		return apperrors.NewValidationError("name is required")
	case h.Phone == "" && h.Email == "":
		return apperrors.NewValidationError("phone or email is required")
	case h.CityID == "":
		return apperrors.NewValidationError("cityId is required")
	}
	return nil
}
