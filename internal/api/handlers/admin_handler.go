package handlers

import (
	"context"
	"net/http"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
)

// UserManager is the user CRUD surface used by the console.
type UserManager interface {
	Create(ctx context.Context, input services.UserInput) (*entities.User, error)
	GetByID(ctx context.Context, id string) (*entities.User, error)
	List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error)
	Update(ctx context.Context, id string, input services.UserInput) (*entities.User, error)
	Delete(ctx context.Context, id string) error
}

// HospitalManager is the hospital CRUD surface used by the console.
type HospitalManager interface {
	Create(ctx context.Context, input services.HospitalInput) (*entities.Hospital, error)
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)
	List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error)
	Update(ctx context.Context, id string, input services.HospitalInput) (*entities.Hospital, error)
	Delete(ctx context.Context, id string) error
}

// AdminManager is the admin account CRUD surface.
type AdminManager interface {
	Create(ctx context.Context, input services.AdminInput) (*entities.Admin, error)
	GetByID(ctx context.Context, id string) (*entities.Admin, error)
	List(ctx context.Context, limit, offset int) ([]*entities.Admin, error)
	Update(ctx context.Context, id string, input services.AdminInput) (*entities.Admin, error)
	Delete(ctx context.Context, id string, actor services.Actor) error
}

// AdminHandler serves the admin console CRUD endpoints. Every route is
// mounted behind the admin middleware.
type AdminHandler struct {
	users     UserManager
	hospitals HospitalManager
	admins    AdminManager
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users UserManager, hospitals HospitalManager, admins AdminManager) *AdminHandler {
	return &AdminHandler{users: users, hospitals: hospitals, admins: admins}
}

// ListUsers handles GET /api/admin/users?cityId=&donors=&limit=&offset=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := repositories.UserFilter{
		CityID:     r.URL.Query().Get("cityId"),
		DonorsOnly: r.URL.Query().Get("donors") == "true",
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}
	users, err := h.users.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

// GetUser handles GET /api/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// CreateUser handles POST /api/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input services.UserInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	user, err := h.users.Create(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// UpdateUser handles PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var input services.UserInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	user, err := h.users.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHospitals handles GET /api/admin/hospitals?cityId=&bloodCenters=
func (h *AdminHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	filter := repositories.HospitalFilter{
		CityID:           r.URL.Query().Get("cityId"),
		BloodCentersOnly: r.URL.Query().Get("bloodCenters") == "true",
		Limit:            queryInt(r, "limit", 50),
		Offset:           queryInt(r, "offset", 0),
	}
	hospitals, err := h.hospitals.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"hospitals": hospitals, "count": len(hospitals)})
}

// GetHospital handles GET /api/admin/hospitals/{id}
func (h *AdminHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	hospital, err := h.hospitals.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, hospital)
}

// CreateHospital handles POST /api/admin/hospitals
func (h *AdminHandler) CreateHospital(w http.ResponseWriter, r *http.Request) {
	var input services.HospitalInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	hospital, err := h.hospitals.Create(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, hospital)
}

// UpdateHospital handles PUT /api/admin/hospitals/{id}
func (h *AdminHandler) UpdateHospital(w http.ResponseWriter, r *http.Request) {
	var input services.HospitalInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	hospital, err := h.hospitals.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, hospital)
}

// DeleteHospital handles DELETE /api/admin/hospitals/{id}
func (h *AdminHandler) DeleteHospital(w http.ResponseWriter, r *http.Request) {
	if err := h.hospitals.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAdmins handles GET /api/admin/admins
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"admins": admins, "count": len(admins)})
}

// GetAdmin handles GET /api/admin/admins/{id}
func (h *AdminHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.admins.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, admin)
}

// CreateAdmin handles POST /api/admin/admins
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var input services.AdminInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	admin, err := h.admins.Create(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, admin)
}

// UpdateAdmin handles PUT /api/admin/admins/{id}
func (h *AdminHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var input services.AdminInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	admin, err := h.admins.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, admin)
}

// DeleteAdmin handles DELETE /api/admin/admins/{id}
func (h *AdminHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, _ := services.ActorFromContext(r.Context())
	if err := h.admins.Delete(r.Context(), r.PathValue("id"), actor); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
