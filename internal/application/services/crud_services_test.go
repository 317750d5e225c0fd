package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	apperrors "github.com/redhope/backend/pkg/errors"
)

func TestUserService_Create(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
		return u.Email == "donor@redhope.dz" && u.Phone == "0550123456" && u.CityID == "05" &&
			u.BloodType == entities.BloodTypeABNeg && u.PasswordHash != "" && u.PasswordHash != "long-enough"
	})).Return(nil)

	user, err := services.NewUserService(repo).Create(context.Background(), services.UserInput{
		Name:      strPtr("Nadia"),
		Email:     strPtr(" Donor@RedHope.dz"),
		Phone:     strPtr("0550 12 34 56"),
		Password:  strPtr("long-enough"),
		BloodType: strPtr("ab-"),
		IsDonor:   boolPtr(true),
		CityID:    strPtr("5"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsAvailable)
	repo.AssertExpectations(t)
}

func TestUserService_CreateValidation(t *testing.T) {
	base := func() services.UserInput {
		return services.UserInput{
			Name: strPtr("Nadia"), Email: strPtr("n@redhope.dz"), Password: strPtr("long-enough"), CityID: strPtr("16"),
		}
	}
	tests := map[string]func(in *services.UserInput){
		"missing name":      func(in *services.UserInput) { in.Name = nil },
		"missing contact":   func(in *services.UserInput) { in.Email = nil },
		"missing city":      func(in *services.UserInput) { in.CityID = nil },
		"bad city":          func(in *services.UserInput) { in.CityID = strPtr("99") },
		"bad phone":         func(in *services.UserInput) { in.Phone = strPtr("123") },
		"donor w/o blood":   func(in *services.UserInput) { in.IsDonor = boolPtr(true) },
		"short password":    func(in *services.UserInput) { in.Password = strPtr("abc") },
		"missing password":  func(in *services.UserInput) { in.Password = nil },
		"invalid bloodtype": func(in *services.UserInput) { in.BloodType = strPtr("Q") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			repo := new(MockUserRepository)
			in := base()
			mutate(&in)
			_, err := services.NewUserService(repo).Create(context.Background(), in)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "got %v", err)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUserService_UpdateKeepsUntouchedFields(t *testing.T) {
	repo := new(MockUserRepository)
	existing := &entities.User{ID: "u1", Name: "Old", Email: "a@redhope.dz", CityID: "16", PasswordHash: "hash"}
	repo.On("GetByID", mock.Anything, "u1").Return(existing, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
		return u.Name == "New" && u.Email == "a@redhope.dz" && u.PasswordHash == "hash"
	})).Return(nil)

	user, err := services.NewUserService(repo).Update(context.Background(), "u1", services.UserInput{Name: strPtr("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", user.Name)
}

func TestUserService_ListNormalizesCity(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("List", mock.Anything, repositories.UserFilter{CityID: "07", DonorsOnly: true}).Return([]*entities.User{}, nil)

	_, err := services.NewUserService(repo).List(context.Background(), repositories.UserFilter{CityID: "7", DonorsOnly: true})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHospitalService_CreateAndBloodCenters(t *testing.T) {
	ctx := context.Background()
	repo := new(MockHospitalRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(h *entities.Hospital) bool {
		return h.Name == "CTS Alger" && h.CityID == "16" && h.IsBloodCenter
	})).Return(nil)
	repo.On("List", mock.Anything, repositories.HospitalFilter{CityID: "16", BloodCentersOnly: true}).
		Return([]*entities.Hospital{{ID: "h1", IsBloodCenter: true}}, nil)

	svc := services.NewHospitalService(repo)

	_, err := svc.Create(ctx, services.HospitalInput{
		Name: strPtr("CTS Alger"), Phone: strPtr("021 23 45 67 89"), CityID: strPtr("16"), IsBloodCenter: boolPtr(true),
	})
	require.NoError(t, err)

	centers, err := svc.ListBloodCenters(ctx, "16")
	require.NoError(t, err)
	assert.Len(t, centers, 1)

	_, err = svc.Create(ctx, services.HospitalInput{Name: strPtr("No contact"), CityID: strPtr("16")})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAdminRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *entities.Admin) bool {
		return a.Email == "ops@redhope.dz" && len(a.Permissions) == 1 && a.PasswordHash != ""
	})).Return(nil)
	repo.On("Delete", mock.Anything, "admin-2").Return(nil)

	svc := services.NewAdminService(repo)

	perms := []string{"users:write"}
	_, err := svc.Create(ctx, services.AdminInput{
		Name: strPtr("Ops"), Email: strPtr("OPS@redhope.dz"), Password: strPtr("very-secret"), Permissions: &perms,
	})
	require.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, "admin-2", services.Actor{UserID: "admin-1", Role: entities.RoleAdmin}))

	err = svc.Delete(ctx, "admin-1", services.Actor{UserID: "admin-1", Role: entities.RoleAdmin})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
