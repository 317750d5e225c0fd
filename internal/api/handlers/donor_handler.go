package handlers

import (
	"context"
	"net/http"

	"github.com/redhope/backend/internal/application/services"
)

// DonorFinder searches donors.
type DonorFinder interface {
	SearchNearby(ctx context.Context, params services.DonorSearchParams) ([]services.DonorMatch, error)
}

// DonorContacter runs the contact-donor flow.
type DonorContacter interface {
	Contact(ctx context.Context, input services.ContactInput) (*services.ContactResult, error)
}

// DonorHandler handles donor search and contact requests
type DonorHandler struct {
	donors  DonorFinder
	contact DonorContacter
}

// NewDonorHandler creates a new donor handler
func NewDonorHandler(donors DonorFinder, contact DonorContacter) *DonorHandler {
	return &DonorHandler{donors: donors, contact: contact}
}

// Search handles GET /api/donors/search?lat=&lng=&radius=&bloodType=&cityId=&limit=
func (h *DonorHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := services.DonorSearchParams{
		BloodType: query.Get("bloodType"),
		CityID:    query.Get("cityId"),
		Limit:     queryInt(r, "limit", 0),
	}

	_, hasLat := query["lat"]
	_, hasLng := query["lng"]
	if hasLat || hasLng {
		lat, okLat := queryFloat(r, "lat")
		lng, okLng := queryFloat(r, "lng")
		if !okLat || !okLng {
			respondWithError(w, http.StatusBadRequest, "Invalid coordinates")
			return
		}
		params.Lat, params.Lng = &lat, &lng
	}
	if radius, ok := queryFloat(r, "radius"); ok {
		params.RadiusKm = radius
	}

	donors, err := h.donors.SearchNearby(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"donors": donors,
		"count":  len(donors),
	})
}

// Contact handles POST /api/donors/{id}/contact. An invalid phone number is
// reported in the body with 422 so the dialog can stay open.
func (h *DonorHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var input services.ContactInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	input.DonorID = r.PathValue("id")
	input.SessionID = r.Header.Get(SessionHeader)
	input.RequesterID = ""
	if actor, ok := services.ActorFromContext(r.Context()); ok {
		input.RequesterID = actor.UserID
	}

	result, err := h.contact.Contact(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.InvalidPhone {
		status = http.StatusUnprocessableEntity
	}
	respondWithJSON(w, status, result)
}
