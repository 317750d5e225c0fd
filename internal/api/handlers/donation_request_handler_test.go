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
	apperrors "github.com/redhope/backend/pkg/errors"
)

type MockDonationRequestManager struct {
	mock.Mock
}

func (m *MockDonationRequestManager) request(args mock.Arguments) (*entities.DonationRequest, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DonationRequest), args.Error(1)
}

func (m *MockDonationRequestManager) list(args mock.Arguments) ([]*entities.DonationRequest, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DonationRequest), args.Error(1)
}

func (m *MockDonationRequestManager) CreateForUser(ctx context.Context, requesterID string, input services.DonationRequestInput) (*entities.DonationRequest, error) {
	return m.request(m.Called(ctx, requesterID, input))
}

func (m *MockDonationRequestManager) CreateForGuest(ctx context.Context, input services.DonationRequestInput) (*entities.DonationRequest, error) {
	return m.request(m.Called(ctx, input))
}

func (m *MockDonationRequestManager) GetByID(ctx context.Context, id string) (*entities.DonationRequest, error) {
	return m.request(m.Called(ctx, id))
}

func (m *MockDonationRequestManager) ListByDonor(ctx context.Context, donorID string, limit, offset int) ([]*entities.DonationRequest, error) {
	return m.list(m.Called(ctx, donorID, limit, offset))
}

func (m *MockDonationRequestManager) ListByCity(ctx context.Context, cityID string, status entities.DonationRequestStatus, limit, offset int) ([]*entities.DonationRequest, error) {
	return m.list(m.Called(ctx, cityID, status, limit, offset))
}

func (m *MockDonationRequestManager) Fulfill(ctx context.Context, id string, actor services.Actor) (*entities.DonationRequest, error) {
	return m.request(m.Called(ctx, id, actor))
}

func (m *MockDonationRequestManager) Complete(ctx context.Context, id string, actor services.Actor) (*entities.DonationRequest, error) {
	return m.request(m.Called(ctx, id, actor))
}

func (m *MockDonationRequestManager) Cancel(ctx context.Context, id string, actor services.Actor) (*entities.DonationRequest, error) {
	return m.request(m.Called(ctx, id, actor))
}

func withActor(req *http.Request, actor services.Actor) *http.Request {
	return req.WithContext(services.ContextWithActor(req.Context(), actor))
}

func TestDonationRequestHandler_Create(t *testing.T) {
	payload := `{"bloodType":"A+","donorId":"donor-1","cityId":"16","location":{"type":"Point","coordinates":[3.05,36.75]}}`

	t.Run("creates a request for the signed-in user", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)

		svc.On("CreateForUser", mock.Anything, "user-1", mock.MatchedBy(func(in services.DonationRequestInput) bool {
			return in.BloodType == "A+" && in.DonorID == "donor-1"
		})).Return(&entities.DonationRequest{ID: "req-1", Status: entities.DonationRequestActive}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/donation-request", bytes.NewBufferString(payload))
		req = withActor(req, services.Actor{UserID: "user-1", Role: "user"})
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "req-1", body["request"].(map[string]interface{})["id"])
		svc.AssertExpectations(t)
	})

	t.Run("requires authentication", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/donation-request", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "CreateForUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("creates a guest request", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)
		svc.On("CreateForGuest", mock.Anything, mock.MatchedBy(func(in services.DonationRequestInput) bool {
			return in.PhoneNumber == "0551234567"
		})).Return(&entities.DonationRequest{ID: "req-2", GuestID: "guest-1"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/donation-request/guest",
			bytes.NewBufferString(`{"bloodType":"O-","donorId":"donor-1","phoneNumber":"0551234567"}`))
		w := httptest.NewRecorder()

		handler.CreateForGuest(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("reports an unknown donor", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)
		svc.On("CreateForGuest", mock.Anything, mock.Anything).Return(nil, apperrors.NewNotFoundError("donor not found"))

		req := httptest.NewRequest(http.MethodPost, "/api/donation-request/guest", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()

		handler.CreateForGuest(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDonationRequestHandler_Lists(t *testing.T) {
	requests := []*entities.DonationRequest{{ID: "req-1"}, {ID: "req-2"}}

	t.Run("lists by donor with default paging", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)
		svc.On("ListByDonor", mock.Anything, "donor-1", 50, 0).Return(requests, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/donation-request/donor/donor-1", nil)
		req.SetPathValue("donorId", "donor-1")
		w := httptest.NewRecorder()

		handler.ListByDonor(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeBody(t, w)["count"])
		svc.AssertExpectations(t)
	})

	t.Run("parses status case-insensitively", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)
		svc.On("ListByCity", mock.Anything, "16", entities.DonationRequestActive, 10, 20).Return(requests[:1], nil)

		req := httptest.NewRequest(http.MethodGet, "/api/donation-request/city/16?status=active&limit=10&offset=20", nil)
		req.SetPathValue("cityId", "16")
		w := httptest.NewRecorder()

		handler.ListByCity(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decodeBody(t, w)["count"])
		svc.AssertExpectations(t)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/donation-request/city/16?status=pending", nil)
		req.SetPathValue("cityId", "16")
		w := httptest.NewRecorder()

		handler.ListByCity(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ListByCity", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDonationRequestHandler_Transitions(t *testing.T) {
	actor := services.Actor{UserID: "donor-1", Role: "user"}

	tests := []struct {
		name   string
		method string
		serve  func(h *handlers.DonationRequestHandler) http.HandlerFunc
		status entities.DonationRequestStatus
	}{
		{"fulfill", "Fulfill", func(h *handlers.DonationRequestHandler) http.HandlerFunc { return h.Fulfill }, entities.DonationRequestFulfilled},
		{"complete", "Complete", func(h *handlers.DonationRequestHandler) http.HandlerFunc { return h.Complete }, entities.DonationRequestCompleted},
		{"cancel", "Cancel", func(h *handlers.DonationRequestHandler) http.HandlerFunc { return h.Cancel }, entities.DonationRequestCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDonationRequestManager)
			handler := handlers.NewDonationRequestHandler(svc)
			svc.On(tt.method, mock.Anything, "req-1", actor).
				Return(&entities.DonationRequest{ID: "req-1", Status: tt.status}, nil)

			req := httptest.NewRequest(http.MethodPatch, "/api/donation-request/req-1/"+tt.name, nil)
			req.SetPathValue("id", "req-1")
			w := httptest.NewRecorder()

			tt.serve(handler)(w, withActor(req, actor))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, string(tt.status), decodeBody(t, w)["request"].(map[string]interface{})["status"])
			svc.AssertExpectations(t)
		})
	}

	t.Run("requires authentication", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)

		req := httptest.NewRequest(http.MethodPatch, "/api/donation-request/req-1/cancel", nil)
		req.SetPathValue("id", "req-1")
		w := httptest.NewRecorder()

		handler.Cancel(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("maps forbidden and conflict", func(t *testing.T) {
		svc := new(MockDonationRequestManager)
		handler := handlers.NewDonationRequestHandler(svc)
		svc.On("Fulfill", mock.Anything, "req-1", actor).Return(nil, apperrors.NewForbiddenError("not allowed"))
		svc.On("Complete", mock.Anything, "req-1", actor).Return(nil, apperrors.NewConflictError("request is Cancelled"))

		req := httptest.NewRequest(http.MethodPatch, "/api/donation-request/req-1/fulfill", nil)
		req.SetPathValue("id", "req-1")
		w := httptest.NewRecorder()
		handler.Fulfill(w, withActor(req, actor))
		assert.Equal(t, http.StatusForbidden, w.Code)

		req = httptest.NewRequest(http.MethodPatch, "/api/donation-request/req-1/complete", nil)
		req.SetPathValue("id", "req-1")
		w = httptest.NewRecorder()
		handler.Complete(w, withActor(req, actor))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
