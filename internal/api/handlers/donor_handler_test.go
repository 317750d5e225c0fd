package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/redhope/backend/internal/api/handlers"
	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
)

type MockDonorFinder struct {
	mock.Mock
}

func (m *MockDonorFinder) SearchNearby(ctx context.Context, params services.DonorSearchParams) ([]services.DonorMatch, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.DonorMatch), args.Error(1)
}

type MockDonorContacter struct {
	mock.Mock
}

func (m *MockDonorContacter) Contact(ctx context.Context, input services.ContactInput) (*services.ContactResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ContactResult), args.Error(1)
}

func TestDonorHandler_Search(t *testing.T) {
	t.Run("passes coordinates, radius and blood type", func(t *testing.T) {
		finder := new(MockDonorFinder)
		handler := handlers.NewDonorHandler(finder, new(MockDonorContacter))

		distance := 2.5
		finder.On("SearchNearby", mock.Anything, mock.MatchedBy(func(p services.DonorSearchParams) bool {
			return p.Lat != nil && *p.Lat == 36.75 && p.Lng != nil && *p.Lng == 3.06 &&
				p.RadiusKm == 15 && p.BloodType == "AB-"
		})).Return([]services.DonorMatch{{ID: "donor-1", BloodType: entities.BloodTypeONeg, DistanceKm: &distance}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/donors/search?lat=36.75&lng=3.06&radius=15&bloodType=AB-", nil)
		w := httptest.NewRecorder()

		handler.Search(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["count"])
		donor := body["donors"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "donor-1", donor["id"])
		assert.NotContains(t, donor, "phone")
		finder.AssertExpectations(t)
	})

	t.Run("searches without a position", func(t *testing.T) {
		finder := new(MockDonorFinder)
		handler := handlers.NewDonorHandler(finder, new(MockDonorContacter))
		finder.On("SearchNearby", mock.Anything, mock.MatchedBy(func(p services.DonorSearchParams) bool {
			return p.Lat == nil && p.Lng == nil && p.CityID == "31"
		})).Return([]services.DonorMatch{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/donors/search?cityId=31", nil)
		w := httptest.NewRecorder()

		handler.Search(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(0), decodeBody(t, w)["count"])
	})

	t.Run("rejects a half-specified position", func(t *testing.T) {
		finder := new(MockDonorFinder)
		handler := handlers.NewDonorHandler(finder, new(MockDonorContacter))

		req := httptest.NewRequest(http.MethodGet, "/api/donors/search?lat=36.75", nil)
		w := httptest.NewRecorder()

		handler.Search(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		finder.AssertNotCalled(t, "SearchNearby", mock.Anything, mock.Anything)
	})
}

func TestDonorHandler_Contact(t *testing.T) {
	t.Run("fills donor and requester from the request", func(t *testing.T) {
		contacter := new(MockDonorContacter)
		handler := handlers.NewDonorHandler(new(MockDonorFinder), contacter)

		contacter.On("Contact", mock.Anything, mock.MatchedBy(func(in services.ContactInput) bool {
			return in.DonorID == "donor-1" && in.RequesterID == "user-1" && in.Method == "whatsapp"
		})).Return(&services.ContactResult{
			State:  services.ContactDone,
			Method: "whatsapp",
			Link:   "https://wa.me/213551234567",
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/donors/donor-1/contact",
			bytes.NewBufferString(`{"phoneNumber":"0551234567","method":"whatsapp","bloodType":"A+"}`))
		req.SetPathValue("id", "donor-1")
		req = withActor(req, services.Actor{UserID: "user-1", Role: "user"})
		w := httptest.NewRecorder()

		handler.Contact(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://wa.me/213551234567", decodeBody(t, w)["link"])
		contacter.AssertExpectations(t)
	})

	t.Run("passes the guest session id", func(t *testing.T) {
		contacter := new(MockDonorContacter)
		handler := handlers.NewDonorHandler(new(MockDonorFinder), contacter)
		contacter.On("Contact", mock.Anything, mock.MatchedBy(func(in services.ContactInput) bool {
			return in.RequesterID == "" && in.SessionID == "sess-abc"
		})).Return(&services.ContactResult{State: services.ContactDone}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/donors/donor-1/contact",
			bytes.NewBufferString(`{"phoneNumber":"0551234567"}`))
		req.SetPathValue("id", "donor-1")
		req.Header.Set(handlers.SessionHeader, "sess-abc")
		w := httptest.NewRecorder()

		handler.Contact(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		contacter.AssertExpectations(t)
	})

	t.Run("ignores a requester id smuggled in the body", func(t *testing.T) {
		contacter := new(MockDonorContacter)
		handler := handlers.NewDonorHandler(new(MockDonorFinder), contacter)
		contacter.On("Contact", mock.Anything, mock.MatchedBy(func(in services.ContactInput) bool {
			return in.RequesterID == ""
		})).Return(&services.ContactResult{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/donors/donor-1/contact",
			bytes.NewBufferString(`{"phoneNumber":"0551234567","method":"call","RequesterID":"admin-1"}`))
		req.SetPathValue("id", "donor-1")
		w := httptest.NewRecorder()

		handler.Contact(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		contacter.AssertExpectations(t)
	})

	t.Run("returns 422 for an invalid phone", func(t *testing.T) {
		contacter := new(MockDonorContacter)
		handler := handlers.NewDonorHandler(new(MockDonorFinder), contacter)
		contacter.On("Contact", mock.Anything, mock.Anything).Return(&services.ContactResult{
			InvalidPhone: true,
			Message:      "Please enter a valid phone number",
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/donors/donor-1/contact",
			bytes.NewBufferString(`{"phoneNumber":"12","method":"call"}`))
		req.SetPathValue("id", "donor-1")
		w := httptest.NewRecorder()

		handler.Contact(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["invalidPhone"])
	})
}
