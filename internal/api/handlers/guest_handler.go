package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
)

// GuestManager registers and looks up guests.
type GuestManager interface {
	Register(ctx context.Context, input services.GuestInput) (*entities.GuestRegistration, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*entities.Guest, error)
	GetByID(ctx context.Context, id string) (*entities.Guest, error)
	UpdateLocation(ctx context.Context, guestID string, location entities.GeoPoint, cityID string) (*entities.Guest, error)
}

// GuestHandler handles guest registration requests
type GuestHandler struct {
	guests GuestManager
}

// NewGuestHandler creates a new guest handler
func NewGuestHandler(guests GuestManager) *GuestHandler {
	return &GuestHandler{guests: guests}
}

type guestRegistrationResponse struct {
	Success      bool      `json:"success"`
	GuestID      string    `json:"guestId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
	CityID       string    `json:"cityId,omitempty"`
	IsNewAccount bool      `json:"isNewAccount"`
}

// Register handles POST /api/guest/register. New guests get 201, returning
// guests 200.
func (h *GuestHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.GuestInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	reg, err := h.guests.Register(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if reg.IsNewAccount {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, guestRegistrationResponse{
		Success:      true,
		GuestID:      reg.Guest.ID,
		CreatedAt:    reg.Guest.CreatedAt,
		LastActive:   reg.Guest.LastActive,
		CityID:       reg.Guest.CityID,
		IsNewAccount: reg.IsNewAccount,
	})
}

// GetByPhone handles GET /api/guest/phone/{phoneNumber}
func (h *GuestHandler) GetByPhone(w http.ResponseWriter, r *http.Request) {
	guest, err := h.guests.GetByPhone(r.Context(), r.PathValue("phoneNumber"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, guest)
}

// GetByID handles GET /api/guest/{guestId}
func (h *GuestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	guest, err := h.guests.GetByID(r.Context(), r.PathValue("guestId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, guest)
}

type updateGuestLocationRequest struct {
	GuestID  string            `json:"guestId"`
	Location entities.GeoPoint `json:"location"`
	CityID   string            `json:"cityId"`
}

// UpdateLocation handles POST /api/guest/update-location
func (h *GuestHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req updateGuestLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	guest, err := h.guests.UpdateLocation(r.Context(), req.GuestID, req.Location, req.CityID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"guest":   guest,
	})
}
