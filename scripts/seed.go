package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/redhope/backend/internal/adapters/database"
	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/infrastructure/clients/postgres"
	"github.com/redhope/backend/internal/infrastructure/observability"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("redhope-seed", cfg.Environment, cfg.LogLevel)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	if err := database.EnsureSchema(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				donation_requests,
				guests,
				hospitals,
				admins,
				users
			CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	// 1. Wilayas
	inserted, err := database.SeedWilayas(ctx, pgClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed wilayas")
	}
	log.Info().Int64("inserted", inserted).Msg("seeded wilayas")

	// 2. Bootstrap admin
	if email, password := os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD"); email != "" && password != "" {
		name := "Administrator"
		admins := services.NewAdminService(database.NewAdminAdapter(pgClient))
		_, err := admins.Create(ctx, services.AdminInput{Name: &name, Email: &email, Password: &password})
		switch {
		case err == nil:
			log.Info().Str("email", email).Msg("created admin")
		case apperrors.IsConflict(err):
			log.Info().Str("email", email).Msg("admin already exists")
		default:
			log.Error().Err(err).Msg("failed to create admin")
		}
	}

	// 3. Regional blood transfusion centers
	hospitals := services.NewHospitalService(database.NewHospitalAdapter(pgClient))
	existing, err := hospitals.ListBloodCenters(ctx, "")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list blood centers")
	}
	if len(existing) > 0 {
		log.Info().Int("count", len(existing)).Msg("blood centers already present, skipping")
		return
	}

	centers := []struct {
		name, address, phone, city string
		at                         entities.Coordinate
	}{
		{"Centre National de Transfusion Sanguine", "Route de Ouled Fayet, Dely Ibrahim", "+213 23 30 73 29", "16", entities.Coordinate{Lat: 36.7520, Lng: 2.9833}},
		{"CTS CHU Mustapha Pacha", "Place du 1er Mai, Sidi M'Hamed", "+213 21 23 55 55", "16", entities.Coordinate{Lat: 36.7608, Lng: 3.0544}},
		{"CTS CHU Oran", "Boulevard Dr Benzerdjeb", "+213 41 41 20 00", "31", entities.Coordinate{Lat: 35.6987, Lng: -0.6349}},
		{"CTS CHU Constantine", "Rue Ben Badis", "+213 31 88 70 00", "25", entities.Coordinate{Lat: 36.3650, Lng: 6.6147}},
		{"CTS CHU Blida", "Hôpital Frantz Fanon", "+213 25 41 14 00", "09", entities.Coordinate{Lat: 36.4701, Lng: 2.8277}},
	}

	isCenter := true
	for _, c := range centers {
		name, address, phoneNumber, city := c.name, c.address, c.phone, c.city
		point := c.at.Point()
		_, err := hospitals.Create(ctx, services.HospitalInput{
			Name:          &name,
			Address:       &address,
			Phone:         &phoneNumber,
			CityID:        &city,
			Location:      &point,
			IsBloodCenter: &isCenter,
		})
		if err != nil {
			log.Error().Err(err).Str("name", name).Msg("failed to create blood center")
			continue
		}
		log.Info().Str("name", name).Msg("created blood center")
	}
}
