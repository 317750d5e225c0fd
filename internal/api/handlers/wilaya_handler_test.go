package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/redhope/backend/internal/api/handlers"
	"github.com/redhope/backend/internal/domain/entities"
	apperrors "github.com/redhope/backend/pkg/errors"
)

type MockWilayaLookup struct {
	mock.Mock
}

func (m *MockWilayaLookup) ListWilayas(ctx context.Context) ([]*entities.Wilaya, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wilaya), args.Error(1)
}

func (m *MockWilayaLookup) GetWilayaByCode(ctx context.Context, code string) (*entities.Wilaya, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wilaya), args.Error(1)
}

func (m *MockWilayaLookup) GetWilayaByID(ctx context.Context, id string) (*entities.Wilaya, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wilaya), args.Error(1)
}

type MockBloodCenterLister struct {
	mock.Mock
}

func (m *MockBloodCenterLister) ListBloodCenters(ctx context.Context, cityID string) ([]*entities.Hospital, error) {
	args := m.Called(ctx, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hospital), args.Error(1)
}

func TestWilayaHandler(t *testing.T) {
	alger := &entities.Wilaya{ID: "w-16", Code: "16", Name: "Alger", NameAr: "الجزائر"}

	t.Run("lists wilayas", func(t *testing.T) {
		lookup := new(MockWilayaLookup)
		handler := handlers.NewWilayaHandler(lookup, new(MockBloodCenterLister))
		lookup.On("ListWilayas", mock.Anything).Return([]*entities.Wilaya{alger}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/wilaya/all", nil)
		w := httptest.NewRecorder()

		handler.ListWilayas(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("gets a wilaya by code", func(t *testing.T) {
		lookup := new(MockWilayaLookup)
		handler := handlers.NewWilayaHandler(lookup, new(MockBloodCenterLister))
		lookup.On("GetWilayaByCode", mock.Anything, "16").Return(alger, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/wilaya/code/16", nil)
		req.SetPathValue("code", "16")
		w := httptest.NewRecorder()

		handler.GetByCode(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Alger", decodeBody(t, w)["name"])
	})

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		lookup := new(MockWilayaLookup)
		handler := handlers.NewWilayaHandler(lookup, new(MockBloodCenterLister))
		lookup.On("GetWilayaByID", mock.Anything, "nope").Return(nil, apperrors.NewNotFoundError("wilaya not found"))

		req := httptest.NewRequest(http.MethodGet, "/api/wilaya/nope", nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()

		handler.GetByID(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("requires a code", func(t *testing.T) {
		handler := handlers.NewWilayaHandler(new(MockWilayaLookup), new(MockBloodCenterLister))
		req := httptest.NewRequest(http.MethodGet, "/api/wilaya/code/", nil)
		w := httptest.NewRecorder()

		handler.GetByCode(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists blood centers for a wilaya", func(t *testing.T) {
		centers := new(MockBloodCenterLister)
		handler := handlers.NewWilayaHandler(new(MockWilayaLookup), centers)
		centers.On("ListBloodCenters", mock.Anything, "31").Return([]*entities.Hospital{
			{ID: "h-1", Name: "CTS Oran", CityID: "31", IsBloodCenter: true},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/wilaya/blood-centers/all?cityId=31", nil)
		w := httptest.NewRecorder()

		handler.ListBloodCenters(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decodeBody(t, w)["count"])
		centers.AssertExpectations(t)
	})
}
