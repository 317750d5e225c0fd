package handlers

import (
	"context"
	"net/http"

	"github.com/redhope/backend/internal/domain/entities"
)

// WilayaLookup reads the wilaya reference table.
type WilayaLookup interface {
	ListWilayas(ctx context.Context) ([]*entities.Wilaya, error)
	GetWilayaByCode(ctx context.Context, code string) (*entities.Wilaya, error)
	GetWilayaByID(ctx context.Context, id string) (*entities.Wilaya, error)
}

// BloodCenterLister lists hospitals flagged as blood centers.
type BloodCenterLister interface {
	ListBloodCenters(ctx context.Context, cityID string) ([]*entities.Hospital, error)
}

// WilayaHandler serves the wilaya reference data
type WilayaHandler struct {
	wilayas WilayaLookup
	centers BloodCenterLister
}

// NewWilayaHandler creates a new wilaya handler
func NewWilayaHandler(wilayas WilayaLookup, centers BloodCenterLister) *WilayaHandler {
	return &WilayaHandler{wilayas: wilayas, centers: centers}
}

// ListWilayas handles GET /api/wilaya/all
func (h *WilayaHandler) ListWilayas(w http.ResponseWriter, r *http.Request) {
	wilayas, err := h.wilayas.ListWilayas(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"wilayas": wilayas,
		"count":   len(wilayas),
	})
}

// GetByCode handles GET /api/wilaya/code/{code}
func (h *WilayaHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "wilaya code is required")
		return
	}
	wilaya, err := h.wilayas.GetWilayaByCode(r.Context(), code)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, wilaya)
}

// GetByID handles GET /api/wilaya/{id}
func (h *WilayaHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "wilaya id is required")
		return
	}
	wilaya, err := h.wilayas.GetWilayaByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, wilaya)
}

// ListBloodCenters handles GET /api/wilaya/blood-centers/all?cityId=
func (h *WilayaHandler) ListBloodCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.centers.ListBloodCenters(r.Context(), r.URL.Query().Get("cityId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"bloodCenters": centers,
		"count":        len(centers),
	})
}
