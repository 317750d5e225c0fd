package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/redhope/backend/pkg/errors"
)

var guestColumns = columns("id", "phone_number", "latitude", "longitude", "city_id", "last_active", "created_at")

type guestRow struct {
	ID          string         `db:"id"`
	PhoneNumber string         `db:"phone_number"`
	Latitude    float64        `db:"latitude"`
	Longitude   float64        `db:"longitude"`
	CityID      sql.NullString `db:"city_id"`
	LastActive  time.Time      `db:"last_active"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r guestRow) toEntity() *entities.Guest {
	return &entities.Guest{
		ID:          r.ID,
		PhoneNumber: r.PhoneNumber,
		Location:    entities.Coordinate{Lat: r.Latitude, Lng: r.Longitude}.Point(),
		CityID:      r.CityID.String,
		LastActive:  r.LastActive,
		CreatedAt:   r.CreatedAt,
	}
}

// GuestAdapter implements guest persistence in Postgres.
type GuestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewGuestAdapter creates a new guest adapter.
func NewGuestAdapter(client *postgres.Client) repositories.GuestRepository {
	return &GuestAdapter{
		client: client,
		db:     newDialect(client),
	}
}

// Upsert inserts by phone number or refreshes the existing row in a single
// statement. xmax is zero only for a freshly inserted tuple. A {0,0}
// location or empty city never overwrites known values.
func (a *GuestAdapter) Upsert(ctx context.Context, guest *entities.Guest) (*entities.Guest, bool, error) {
	coord := guest.Location.Coordinate()
	record := goqu.Record{
		"id":           guest.ID,
		"phone_number": guest.PhoneNumber,
		"latitude":     coord.Lat,
		"longitude":    coord.Lng,
		"city_id":      nullString(guest.CityID),
		"last_active":  guest.LastActive,
		"created_at":   guest.CreatedAt,
	}

	returning := append(append([]interface{}{}, guestColumns...), goqu.L("(xmax = 0)").As("inserted"))
	query, args, err := a.db.Insert("guests").
		Rows(record).
		OnConflict(goqu.DoUpdate("phone_number", goqu.Record{
			"latitude":    goqu.L("CASE WHEN EXCLUDED.latitude = 0 AND EXCLUDED.longitude = 0 THEN guests.latitude ELSE EXCLUDED.latitude END"),
			"longitude":   goqu.L("CASE WHEN EXCLUDED.latitude = 0 AND EXCLUDED.longitude = 0 THEN guests.longitude ELSE EXCLUDED.longitude END"),
			"city_id":     goqu.L("COALESCE(EXCLUDED.city_id, guests.city_id)"),
			"last_active": goqu.L("EXCLUDED.last_active"),
		})).
		Returning(returning...).
		ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build guest upsert query", err)
	}

	var row struct {
		guestRow
		Inserted bool `db:"inserted"`
	}
	if err := a.client.X().QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		return nil, false, apperrors.NewInternalError("failed to upsert guest", err)
	}
	return row.guestRow.toEntity(), row.Inserted, nil
}

// GetByID retrieves a guest by ID
func (a *GuestAdapter) GetByID(ctx context.Context, id string) (*entities.Guest, error) {
	return a.getOne(ctx, goqu.C("id").Eq(id), fmt.Sprintf("guest with id %s not found", id))
}

// GetByPhone retrieves a guest by normalized phone number
func (a *GuestAdapter) GetByPhone(ctx context.Context, phone string) (*entities.Guest, error) {
	return a.getOne(ctx, goqu.C("phone_number").Eq(phone), "guest not found for phone number")
}

func (a *GuestAdapter) getOne(ctx context.Context, where goqu.Expression, notFound string) (*entities.Guest, error) {
	query, args, err := a.db.From("guests").Select(guestColumns...).Where(where).Limit(1).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build guest query", err)
	}

	var row guestRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get guest", err)
	}
	return row.toEntity(), nil
}

// UpdateLocation updates location, city and last activity
func (a *GuestAdapter) UpdateLocation(ctx context.Context, id string, location entities.GeoPoint, cityID string) (*entities.Guest, error) {
	coord := location.Coordinate()
	set := goqu.Record{"last_active": time.Now().UTC()}
	if !coord.IsZero() {
		set["latitude"] = coord.Lat
		set["longitude"] = coord.Lng
	}
	if cityID != "" {
		set["city_id"] = cityID
	}

	query, args, err := a.db.Update("guests").
		Set(set).
		Where(goqu.C("id").Eq(id)).
		Returning(guestColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build guest update query", err)
	}

	var row guestRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("guest with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update guest location", err)
	}
	return row.toEntity(), nil
}
