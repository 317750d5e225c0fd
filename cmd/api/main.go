package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/redhope/backend/internal/adapters/cache"
	"github.com/redhope/backend/internal/adapters/database"
	"github.com/redhope/backend/internal/adapters/events"
	"github.com/redhope/backend/internal/adapters/providers/geocoding"
	"github.com/redhope/backend/internal/api/handlers"
	"github.com/redhope/backend/internal/api/middleware"
	"github.com/redhope/backend/internal/api/routes"
	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/infrastructure/auth"
	"github.com/redhope/backend/internal/infrastructure/clients/postgres"
	"github.com/redhope/backend/internal/infrastructure/clients/redis"
	"github.com/redhope/backend/internal/infrastructure/notifications"
	"github.com/redhope/backend/internal/infrastructure/observability"
	"github.com/redhope/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := database.EnsureSchema(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure database schema")
	}

	// Redis backs the event bus and the saved coordinates, so it is required.
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	cacheProvider := cache.NewRedisAdapter(redisClient, "redhope:", time.Hour)
	geocodeCache := cache.NewMemoryAdapter(cfg.Geocoding.CacheSize, cfg.Geocoding.CacheTTL)
	coordinateStore := cache.NewRedisCoordinateStore(redisClient, "redhope:")
	eventBus := events.NewRedisEventBus(redisClient)

	// Repositories
	userRepo := database.NewUserAdapter(pgClient)
	adminRepo := database.NewAdminAdapter(pgClient)
	hospitalRepo := database.NewHospitalAdapter(pgClient)
	guestRepo := database.NewGuestAdapter(pgClient)
	requestRepo := database.NewDonationRequestAdapter(pgClient)
	wilayaRepo := database.NewCachedWilayaAdapter(database.NewWilayaAdapter(pgClient), cacheProvider)

	var geocoder providers.GeocodingProvider
	switch cfg.Geocoding.Provider {
	case "opencage":
		if cfg.Geocoding.APIKey == "" {
			log.Warn().Msg("OPENCAGE_API_KEY is not set; using mock geocoding provider")
			geocoder = geocoding.NewMockProvider()
		} else {
			geocoder = geocoding.NewOpenCageProviderWithOptions(cfg.Geocoding.APIKey, cfg.Geocoding.BaseURL,
				&http.Client{Timeout: cfg.Geocoding.Timeout})
		}
	default:
		geocoder = geocoding.NewMockProvider()
	}
	log.Info().Str("provider", geocoder.Name()).Msg("geocoding provider selected")

	var sender providers.MessageSender
	if cfg.WhatsApp.Enabled() {
		whatsapp, err := notifications.NewWhatsAppCloudSender(&cfg.WhatsApp)
		if err != nil {
			log.Warn().Err(err).Msg("WhatsApp notifications disabled")
		} else {
			sender = whatsapp
		}
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	// Services
	regionService := services.NewRegionService(wilayaRepo)
	locationService := services.NewLocationService(geocoder, geocodeCache, services.NewDefaultRegionResolver(), metrics,
		services.LocationServiceConfig{
			DefaultLanguage: cfg.Geocoding.DefaultLanguage,
			CacheTTL:        cfg.Geocoding.CacheTTL,
			Timeout:         cfg.Geocoding.Timeout,
		})
	coordinateService := services.NewCoordinateService(coordinateStore, cfg.Donation.SessionTTL)
	guestService := services.NewGuestService(guestRepo, locationService)
	requestService := services.NewDonationRequestService(requestRepo, userRepo, guestService,
		services.DonationRequestServiceOptions{
			Events:        eventBus,
			Sender:        sender,
			Locator:       locationService,
			Namer:         regionService,
			Metrics:       metrics,
			DefaultExpiry: cfg.Donation.DefaultExpiry,
		})
	contactService := services.NewContactService(userRepo, guestService, requestService, locationService,
		coordinateService, cfg.Donation.LocationTimeout)
	donorService := services.NewDonorService(userRepo)
	authService := services.NewAuthService(userRepo, adminRepo, tokens)
	userService := services.NewUserService(userRepo)
	hospitalService := services.NewHospitalService(hospitalRepo)
	adminService := services.NewAdminService(adminRepo)

	go requestService.StartPeriodicExpiry(ctx, cfg.Donation.ExpirySweepEvery)

	router := routes.NewRouter(
		routes.Handlers{
			Location:        handlers.NewLocationHandler(locationService, coordinateService),
			Wilaya:          handlers.NewWilayaHandler(regionService, hospitalService),
			Guest:           handlers.NewGuestHandler(guestService),
			DonationRequest: handlers.NewDonationRequestHandler(requestService),
			Donor:           handlers.NewDonorHandler(donorService, contactService),
			Auth:            handlers.NewAuthHandler(authService, userService),
			Admin:           handlers.NewAdminHandler(userService, hospitalService, adminService),
			SSE:             handlers.NewSSEHandler(eventBus),
		},
		authService,
		cfg.Server.AllowedOrigins,
		middleware.NewCacheMiddleware(cacheProvider, nil),
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	// No write timeout: event streams stay open until the client leaves.
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}
