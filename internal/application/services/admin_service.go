package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	apperrors "github.com/redhope/backend/pkg/errors"
)

// AdminInput carries admin fields; nil pointers are left unchanged on update.
type AdminInput struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Password    *string   `json:"password"`
	Permissions *[]string `json:"permissions"`
}

// AdminService manages console operators
type AdminService struct {
	repo repositories.AdminRepository
	now  func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(repo repositories.AdminRepository) *AdminService {
	return &AdminService{repo: repo, now: time.Now}
}

// Create stores a new admin with a hashed password
func (s *AdminService) Create(ctx context.Context, input AdminInput) (*entities.Admin, error) {
	if input.Password == nil {
		return nil, apperrors.NewValidationError("password is required")
	}
	now := s.now().UTC()
	admin := &entities.Admin{
		ID:          uuid.NewString(),
		Permissions: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := applyAdminInput(admin, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// GetByID retrieves an admin by ID
func (s *AdminService) GetByID(ctx context.Context, id string) (*entities.Admin, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists admins
func (s *AdminService) List(ctx context.Context, limit, offset int) ([]*entities.Admin, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update applies the non-nil fields of input
func (s *AdminService) Update(ctx context.Context, id string, input AdminInput) (*entities.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyAdminInput(admin, input); err != nil {
		return nil, err
	}
	admin.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// Delete deletes an admin. Admins cannot delete themselves.
func (s *AdminService) Delete(ctx context.Context, id string, actor Actor) error {
	if actor.UserID == id {
		return apperrors.NewValidationError("admins cannot delete their own account")
	}
	return s.repo.Delete(ctx, id)
}

func applyAdminInput(admin *entities.Admin, input AdminInput) error {
	if input.Name != nil {
		admin.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		admin.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Password != nil {
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return err
		}
		admin.PasswordHash = hash
	}
	if input.Permissions != nil {
		admin.Permissions = append([]string{}, (*input.Permissions)...)
	}

	switch {
	case admin.Name == "":
		return apperrors.NewValidationError("name is required")
	case !strings.Contains(admin.Email, "@"):
		return apperrors.NewValidationError("valid email is required")
	}
	return nil
}
