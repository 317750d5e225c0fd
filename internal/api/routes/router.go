package routes

import (
	"net/http"

	"github.com/redhope/backend/internal/api/handlers"
	"github.com/redhope/backend/internal/api/middleware"
	"github.com/redhope/backend/internal/infrastructure/observability"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Location        *handlers.LocationHandler
	Wilaya          *handlers.WilayaHandler
	Guest           *handlers.GuestHandler
	DonationRequest *handlers.DonationRequestHandler
	Donor           *handlers.DonorHandler
	Auth            *handlers.AuthHandler
	Admin           *handlers.AdminHandler
	SSE             *handlers.SSEHandler
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	handlers       Handlers
	authenticator  middleware.TokenAuthenticator
	allowedOrigins []string

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	h Handlers,
	authenticator middleware.TokenAuthenticator,
	allowedOrigins []string,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		handlers:        h,
		authenticator:   authenticator,
		allowedOrigins:  allowedOrigins,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	optional := middleware.OptionalAuth(r.authenticator)
	required := middleware.RequireAuth(r.authenticator)
	admin := func(h http.HandlerFunc) http.Handler {
		return required(middleware.RequireAdmin(h))
	}

	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Location endpoints
	r.mux.HandleFunc("GET /api/location/reverse", r.handlers.Location.ReverseGeocode)
	r.mux.HandleFunc("GET /api/location/format", r.handlers.Location.FormatLocation)
	r.mux.Handle("PUT /api/location/saved", optional(http.HandlerFunc(r.handlers.Location.SaveCoordinates)))
	r.mux.Handle("GET /api/location/saved", optional(http.HandlerFunc(r.handlers.Location.GetSavedCoordinates)))

	// Wilaya endpoints
	r.mux.HandleFunc("GET /api/wilaya/all", r.handlers.Wilaya.ListWilayas)
	r.mux.HandleFunc("GET /api/wilaya/code/{code}", r.handlers.Wilaya.GetByCode)
	r.mux.HandleFunc("GET /api/wilaya/blood-centers/all", r.handlers.Wilaya.ListBloodCenters)
	r.mux.HandleFunc("GET /api/wilaya/{id}", r.handlers.Wilaya.GetByID)

	// Guest endpoints
	r.mux.HandleFunc("POST /api/guest/register", r.handlers.Guest.Register)
	r.mux.HandleFunc("POST /api/guest/update-location", r.handlers.Guest.UpdateLocation)
	r.mux.HandleFunc("GET /api/guest/phone/{phoneNumber}", r.handlers.Guest.GetByPhone)
	r.mux.HandleFunc("GET /api/guest/{guestId}", r.handlers.Guest.GetByID)

	// Donation request endpoints
	r.mux.Handle("POST /api/donation-request", required(http.HandlerFunc(r.handlers.DonationRequest.Create)))
	r.mux.HandleFunc("POST /api/donation-request/guest", r.handlers.DonationRequest.CreateForGuest)
	r.mux.HandleFunc("GET /api/donation-request/{id}", r.handlers.DonationRequest.GetByID)
	r.mux.HandleFunc("GET /api/donation-request/donor/{donorId}", r.handlers.DonationRequest.ListByDonor)
	r.mux.HandleFunc("GET /api/donation-request/city/{cityId}", r.handlers.DonationRequest.ListByCity)
	r.mux.Handle("PATCH /api/donation-request/{id}/fulfill", required(http.HandlerFunc(r.handlers.DonationRequest.Fulfill)))
	r.mux.Handle("PATCH /api/donation-request/{id}/complete", required(http.HandlerFunc(r.handlers.DonationRequest.Complete)))
	r.mux.Handle("PATCH /api/donation-request/{id}/cancel", required(http.HandlerFunc(r.handlers.DonationRequest.Cancel)))

	// Donor endpoints
	r.mux.HandleFunc("GET /api/donors/search", r.handlers.Donor.Search)
	r.mux.Handle("POST /api/donors/{id}/contact", optional(http.HandlerFunc(r.handlers.Donor.Contact)))

	// Auth endpoints
	r.mux.HandleFunc("POST /api/auth/login", r.handlers.Auth.Login)
	r.mux.HandleFunc("POST /api/auth/refresh", r.handlers.Auth.Refresh)
	r.mux.HandleFunc("POST /api/auth/register", r.handlers.Auth.Register)

	// Admin console endpoints
	r.mux.Handle("GET /api/admin/users", admin(r.handlers.Admin.ListUsers))
	r.mux.Handle("POST /api/admin/users", admin(r.handlers.Admin.CreateUser))
	r.mux.Handle("GET /api/admin/users/{id}", admin(r.handlers.Admin.GetUser))
	r.mux.Handle("PUT /api/admin/users/{id}", admin(r.handlers.Admin.UpdateUser))
	r.mux.Handle("DELETE /api/admin/users/{id}", admin(r.handlers.Admin.DeleteUser))

	r.mux.Handle("GET /api/admin/hospitals", admin(r.handlers.Admin.ListHospitals))
	r.mux.Handle("POST /api/admin/hospitals", admin(r.handlers.Admin.CreateHospital))
	r.mux.Handle("GET /api/admin/hospitals/{id}", admin(r.handlers.Admin.GetHospital))
	r.mux.Handle("PUT /api/admin/hospitals/{id}", admin(r.handlers.Admin.UpdateHospital))
	r.mux.Handle("DELETE /api/admin/hospitals/{id}", admin(r.handlers.Admin.DeleteHospital))

	r.mux.Handle("GET /api/admin/admins", admin(r.handlers.Admin.ListAdmins))
	r.mux.Handle("POST /api/admin/admins", admin(r.handlers.Admin.CreateAdmin))
	r.mux.Handle("GET /api/admin/admins/{id}", admin(r.handlers.Admin.GetAdmin))
	r.mux.Handle("PUT /api/admin/admins/{id}", admin(r.handlers.Admin.UpdateAdmin))
	r.mux.Handle("DELETE /api/admin/admins/{id}", admin(r.handlers.Admin.DeleteAdmin))

	// Event streams
	if r.handlers.SSE != nil {
		r.mux.HandleFunc("GET /api/stream/donation-requests", r.handlers.SSE.StreamDonationRequests)
		r.mux.HandleFunc("GET /api/stream/donation-requests/region", r.handlers.SSE.StreamRegionalUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.LoggingMiddleware(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
