package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	apperrors "github.com/redhope/backend/pkg/errors"
)

func TestCoordinateService_SaveForUserHasNoTTL(t *testing.T) {
	store := new(MockCoordinateStore)
	coord := entities.Coordinate{Lat: 36.75, Lng: 3.05}
	store.On("Save", mock.Anything, "coords:user:u1", coord, int64(7), time.Duration(0)).Return(true, nil)

	svc := services.NewCoordinateService(store, 24*time.Hour)
	stored, err := svc.SaveCoordinates(context.Background(), services.CoordinateOwner{UserID: "u1", SessionID: "s1"}, coord, 7)

	require.NoError(t, err)
	assert.True(t, stored)
	store.AssertExpectations(t)
}

func TestCoordinateService_SaveForSessionExpires(t *testing.T) {
	store := new(MockCoordinateStore)
	coord := entities.Coordinate{Lat: 35.69, Lng: -0.63}
	store.On("Save", mock.Anything, "coords:session:s1", coord, mock.AnythingOfType("int64"), 24*time.Hour).Return(true, nil)

	svc := services.NewCoordinateService(store, 24*time.Hour)
	_, err := svc.SaveCoordinates(context.Background(), services.CoordinateOwner{SessionID: "s1"}, coord, 0)

	require.NoError(t, err)
	store.AssertExpectations(t)
	gen := store.Calls[0].Arguments.Get(3).(int64)
	assert.Greater(t, gen, int64(0), "server assigns a generation when none is given")
}

func TestCoordinateService_ZeroIsNotSaved(t *testing.T) {
	store := new(MockCoordinateStore)
	svc := services.NewCoordinateService(store, time.Hour)

	stored, err := svc.SaveCoordinates(context.Background(), services.CoordinateOwner{UserID: "u1"}, entities.Coordinate{}, 1)
	require.NoError(t, err)
	assert.False(t, stored)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinateService_StaleSaveReported(t *testing.T) {
	store := new(MockCoordinateStore)
	store.On("Save", mock.Anything, "coords:user:u1", mock.Anything, int64(1), time.Duration(0)).Return(false, nil)

	svc := services.NewCoordinateService(store, time.Hour)
	stored, err := svc.SaveCoordinates(context.Background(), services.CoordinateOwner{UserID: "u1"}, entities.Coordinate{Lat: 1, Lng: 1}, 1)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestCoordinateService_Validation(t *testing.T) {
	svc := services.NewCoordinateService(new(MockCoordinateStore), time.Hour)

	_, err := svc.SaveCoordinates(context.Background(), services.CoordinateOwner{}, entities.Coordinate{Lat: 1, Lng: 1}, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.SaveCoordinates(context.Background(), services.CoordinateOwner{UserID: "u"}, entities.Coordinate{Lat: 100, Lng: 1}, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestCoordinateService_Get(t *testing.T) {
	ctx := context.Background()
	store := new(MockCoordinateStore)
	store.On("Get", mock.Anything, "coords:user:u1").Return(entities.Coordinate{Lat: 36.7, Lng: 3.1}, int64(42), nil)
	store.On("Get", mock.Anything, "coords:user:u2").Return(entities.Coordinate{}, int64(0), providers.ErrNoSavedCoordinates)
	store.On("Get", mock.Anything, "coords:user:u3").Return(entities.Coordinate{}, int64(3), nil)
	store.On("Get", mock.Anything, "coords:user:u4").Return(entities.Coordinate{}, int64(0), errors.New("redis down"))

	svc := services.NewCoordinateService(store, time.Hour)

	saved, err := svc.GetSavedCoordinates(ctx, services.CoordinateOwner{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 36.7, saved.Lat)
	assert.Equal(t, int64(42), saved.Generation)

	_, err = svc.GetSavedCoordinates(ctx, services.CoordinateOwner{UserID: "u2"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetSavedCoordinates(ctx, services.CoordinateOwner{UserID: "u3"})
	assert.True(t, apperrors.IsNotFound(err), "{0,0} counts as no saved location")

	_, err = svc.GetSavedCoordinates(ctx, services.CoordinateOwner{UserID: "u4"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}
