package handlers

import (
	"context"
	"math"
	"net/http"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
)

// SessionHeader carries the guest session id for session-scoped state.
const SessionHeader = "X-Session-ID"

// LocationLookup resolves coordinates to addresses.
type LocationLookup interface {
	ReverseGeocode(ctx context.Context, lat, lng float64, language string) *entities.GeocodeResult
	FormatLocation(ctx context.Context, coord entities.Coordinate, language string) string
}

// CoordinateKeeper persists the caller's last known position.
type CoordinateKeeper interface {
	SaveCoordinates(ctx context.Context, owner services.CoordinateOwner, coord entities.Coordinate, generation int64) (bool, error)
	GetSavedCoordinates(ctx context.Context, owner services.CoordinateOwner) (*services.SavedCoordinates, error)
}

// LocationHandler serves reverse geocoding and saved positions
type LocationHandler struct {
	locations   LocationLookup
	coordinates CoordinateKeeper
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations LocationLookup, coordinates CoordinateKeeper) *LocationHandler {
	return &LocationHandler{
		locations:   locations,
		coordinates: coordinates,
	}
}

// ReverseGeocode handles GET /api/location/reverse?lat=&lng=&language=
func (h *LocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	coord, ok := coordinateFromQuery(r)
	if !ok {
		respondWithJSON(w, http.StatusBadRequest, &entities.GeocodeResult{
			Success: false,
			Message: "Invalid coordinates",
		})
		return
	}

	result := h.locations.ReverseGeocode(r.Context(), coord.Lat, coord.Lng, r.URL.Query().Get("language"))
	status := http.StatusOK
	if !result.Success && !result.Error {
		status = http.StatusBadRequest
	}
	respondWithJSON(w, status, result)
}

// FormatLocation handles GET /api/location/format?lat=&lng=&language=
func (h *LocationHandler) FormatLocation(w http.ResponseWriter, r *http.Request) {
	coord, ok := coordinateFromQuery(r)
	if !ok || !coord.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"formatted": h.locations.FormatLocation(r.Context(), coord, r.URL.Query().Get("language")),
	})
}

type saveCoordinatesRequest struct {
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	Generation int64    `json:"generation"`
}

// SaveCoordinates handles PUT /api/location/saved
func (h *LocationHandler) SaveCoordinates(w http.ResponseWriter, r *http.Request) {
	var req saveCoordinatesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	saved, err := h.coordinates.SaveCoordinates(r.Context(), coordinateOwner(r),
		entities.Coordinate{Lat: *req.Lat, Lng: *req.Lng}, req.Generation)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"saved":   saved,
	})
}

// GetSavedCoordinates handles GET /api/location/saved
func (h *LocationHandler) GetSavedCoordinates(w http.ResponseWriter, r *http.Request) {
	saved, err := h.coordinates.GetSavedCoordinates(r.Context(), coordinateOwner(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

// coordinateOwner prefers the signed-in user over the guest session.
func coordinateOwner(r *http.Request) services.CoordinateOwner {
	if actor, ok := services.ActorFromContext(r.Context()); ok {
		return services.CoordinateOwner{UserID: actor.UserID}
	}
	return services.CoordinateOwner{SessionID: r.Header.Get(SessionHeader)}
}

func coordinateFromQuery(r *http.Request) (entities.Coordinate, bool) {
	lat, ok := queryFloat(r, "lat")
	if !ok {
		return entities.Coordinate{}, false
	}
	lng, ok := queryFloat(r, "lng")
	if !ok {
		return entities.Coordinate{}, false
	}
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return entities.Coordinate{}, false
	}
	return entities.Coordinate{Lat: lat, Lng: lng}, true
}
