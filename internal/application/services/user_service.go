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

// UserInput carries user fields for create and update. Nil pointers leave
// the stored value untouched on update.
type UserInput struct {
	Name        *string            `json:"name"`
	Email       *string            `json:"email"`
	Phone       *string            `json:"phone"`
	Password    *string            `json:"password"`
	BloodType   *string            `json:"bloodType"`
	IsDonor     *bool              `json:"isDonor"`
	IsAvailable *bool              `json:"isAvailable"`
	CityID      *string            `json:"cityId"`
	Location    *entities.GeoPoint `json:"location"`
}

// UserService manages user accounts
type UserService struct {
	repo repositories.UserRepository
	now  func() time.Time
}

// NewUserService creates a new user service
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

// Create validates input and stores a new user.
func (s *UserService) Create(ctx context.Context, input UserInput) (*entities.User, error) {
	if input.Password == nil {
		return nil, apperrors.NewValidationError("password is required")
	}
	now := s.now().UTC()
	user := &entities.User{
		ID:          uuid.NewString(),
		IsAvailable: true,
		Location:    entities.Coordinate{}.Point(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := applyUserInput(user, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists users
func (s *UserService) List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	if filter.CityID != "" {
		code, ok := wilaya.NormalizeCode(filter.CityID)
		if !ok {
			return nil, apperrors.NewValidationError("invalid cityId")
		}
		filter.CityID = code
	}
	return s.repo.List(ctx, filter)
}

// Update applies the non-nil fields of input.
func (s *UserService) Update(ctx context.Context, id string, input UserInput) (*entities.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyUserInput(user, input); err != nil {
		return nil, err
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete deletes a user
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func applyUserInput(user *entities.User, input UserInput) error {
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Phone != nil {
		user.Phone = phone.Normalize(*input.Phone)
		if user.Phone == "" && strings.TrimSpace(*input.Phone) != "" {
			return apperrors.NewValidationError("invalid phone number")
		}
	}
	if input.Password != nil {
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}
	if input.BloodType != nil {
		if strings.TrimSpace(*input.BloodType) == "" {
			user.BloodType = ""
		} else {
			bt, ok := entities.ParseBloodType(*input.BloodType)
			if !ok {
				return apperrors.NewValidationError("invalid blood type")
			}
			user.BloodType = bt
		}
	}
	if input.IsDonor != nil {
		user.IsDonor = *input.IsDonor
	}
	if input.IsAvailable != nil {
		user.IsAvailable = *input.IsAvailable
	}
	if input.CityID != nil {
		code, ok := wilaya.NormalizeCode(*input.CityID)
		if !ok {
			return apperrors.NewValidationError("invalid cityId")
		}
		user.CityID = code
	}
	if input.Location != nil {
		loc := *input.Location
		loc.Type = "Point"
		if !loc.Coordinate().Valid() {
			return apperrors.NewValidationError("Invalid coordinates")
		}
		user.Location = loc
	}

	switch {
	case user.Name == "":
		return apperrors.NewValidationError("name is required")
	case user.Email == "" && user.Phone == "":
		return apperrors.NewValidationError("email or phone is required")
	case user.Email != "" && !strings.Contains(user.Email, "@"):
		return apperrors.NewValidationError("invalid email")
	case user.CityID == "":
		return apperrors.NewValidationError("cityId is required")
	case user.IsDonor && user.BloodType == "":
		return apperrors.NewValidationError("donors must have a blood type")
	}
	return nil
}
