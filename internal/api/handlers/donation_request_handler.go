package handlers

import (
	"context"
	"net/http"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
)

// DonationRequestManager creates, lists and transitions donation requests.
type DonationRequestManager interface {
	CreateForUser(ctx context.Context, requesterID string, input services.DonationRequestInput) (*entities.DonationRequest, error)
	CreateForGuest(ctx context.Context, input services.DonationRequestInput) (*entities.DonationRequest, error)
	GetByID(ctx context.Context, id string) (*entities.DonationRequest, error)
	ListByDonor(ctx context.Context, donorID string, limit, offset int) ([]*entities.DonationRequest, error)
	ListByCity(ctx context.Context, cityID string, status entities.DonationRequestStatus, limit, offset int) ([]*entities.DonationRequest, error)
	Fulfill(ctx context.Context, id string, actor services.Actor) (*entities.DonationRequest, error)
	Complete(ctx context.Context, id string, actor services.Actor) (*entities.DonationRequest, error)
	Cancel(ctx context.Context, id string, actor services.Actor) (*entities.DonationRequest, error)
}

// DonationRequestHandler handles donation request endpoints
type DonationRequestHandler struct {
	requests DonationRequestManager
}

// NewDonationRequestHandler creates a new donation request handler
func NewDonationRequestHandler(requests DonationRequestManager) *DonationRequestHandler {
	return &DonationRequestHandler{requests: requests}
}

// Create handles POST /api/donation-request for signed-in users
func (h *DonationRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := services.ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input services.DonationRequestInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	request, err := h.requests.CreateForUser(r.Context(), actor.UserID, input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"request": request,
	})
}

// CreateForGuest handles POST /api/donation-request/guest
func (h *DonationRequestHandler) CreateForGuest(w http.ResponseWriter, r *http.Request) {
	var input services.DonationRequestInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	request, err := h.requests.CreateForGuest(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"request": request,
	})
}

// GetByID handles GET /api/donation-request/{id}
func (h *DonationRequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	request, err := h.requests.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, request)
}

// ListByDonor handles GET /api/donation-request/donor/{donorId}
func (h *DonationRequestHandler) ListByDonor(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requests.ListByDonor(r.Context(), r.PathValue("donorId"),
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}

// ListByCity handles GET /api/donation-request/city/{cityId}?status=
func (h *DonationRequestHandler) ListByCity(w http.ResponseWriter, r *http.Request) {
	var status entities.DonationRequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := entities.ParseDonationRequestStatus(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		status = parsed
	}

	requests, err := h.requests.ListByCity(r.Context(), r.PathValue("cityId"), status,
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}

// Fulfill handles PATCH /api/donation-request/{id}/fulfill
func (h *DonationRequestHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.Fulfill)
}

// Complete handles PATCH /api/donation-request/{id}/complete
func (h *DonationRequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.Complete)
}

// Cancel handles PATCH /api/donation-request/{id}/cancel
func (h *DonationRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.Cancel)
}

type transitionFunc func(ctx context.Context, id string, actor services.Actor) (*entities.DonationRequest, error)

func (h *DonationRequestHandler) transition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	actor, ok := services.ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	request, err := apply(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"request": request,
	})
}
