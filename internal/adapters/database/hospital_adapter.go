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

var hospitalColumns = columns(
	"id", "name", "address", "phone", "email", "city_id", "latitude", "longitude",
	"is_blood_center", "created_at", "updated_at",
)

type hospitalRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Address       string         `db:"address"`
	Phone         string         `db:"phone"`
	Email         sql.NullString `db:"email"`
	CityID        string         `db:"city_id"`
	Latitude      float64        `db:"latitude"`
	Longitude     float64        `db:"longitude"`
	IsBloodCenter bool           `db:"is_blood_center"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r hospitalRow) toEntity() *entities.Hospital {
	return &entities.Hospital{
		ID:            r.ID,
		Name:          r.Name,
		Address:       r.Address,
		Phone:         r.Phone,
		Email:         r.Email.String,
		CityID:        r.CityID,
		Location:      entities.Coordinate{Lat: r.Latitude, Lng: r.Longitude}.Point(),
		IsBloodCenter: r.IsBloodCenter,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func hospitalRecord(h *entities.Hospital) goqu.Record {
	coord := h.Location.Coordinate()
	return goqu.Record{
		"name":            h.Name,
		"address":         h.Address,
		"phone":           h.Phone,
		"email":           nullString(h.Email),
		"city_id":         h.CityID,
		"latitude":        coord.Lat,
		"longitude":       coord.Lng,
		"is_blood_center": h.IsBloodCenter,
		"updated_at":      h.UpdatedAt,
	}
}

// HospitalAdapter implements hospital persistence in Postgres.
type HospitalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHospitalAdapter creates a new hospital adapter.
func NewHospitalAdapter(client *postgres.Client) repositories.HospitalRepository {
	return &HospitalAdapter{client: client, db: newDialect(client)}
}

// Create inserts a hospital.
func (a *HospitalAdapter) Create(ctx context.Context, hospital *entities.Hospital) error {
	record := hospitalRecord(hospital)
	record["id"] = hospital.ID
	record["created_at"] = hospital.CreatedAt

	query, args, err := a.db.Insert("hospitals").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hospital insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create hospital", err)
	}
	return nil
}

// GetByID retrieves a hospital by ID.
func (a *HospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	query, args, err := a.db.From("hospitals").Select(hospitalColumns...).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build hospital query", err)
	}
	var row hospitalRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}
	return row.toEntity(), nil
}

// List retrieves hospitals matching filter ordered by name.
func (a *HospitalAdapter) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error) {
	ds := a.db.From("hospitals").Select(hospitalColumns...)
	if filter.CityID != "" {
		ds = ds.Where(goqu.C("city_id").Eq(filter.CityID))
	}
	if filter.BloodCentersOnly {
		ds = ds.Where(goqu.C("is_blood_center").IsTrue())
	}
	ds = ds.Order(goqu.I("city_id").Asc(), goqu.I("name").Asc()).Limit(pageLimit(filter.Limit))
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build hospital list query", err)
	}
	var rows []hospitalRow
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list hospitals", err)
	}
	out := make([]*entities.Hospital, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out, nil
}

// Update updates a hospital.
func (a *HospitalAdapter) Update(ctx context.Context, hospital *entities.Hospital) error {
	query, args, err := a.db.Update("hospitals").Set(hospitalRecord(hospital)).Where(goqu.C("id").Eq(hospital.ID)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hospital update query", err)
	}
	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update hospital", err)
	}
	return requireAffected(res, fmt.Sprintf("hospital with id %s not found", hospital.ID))
}

// Delete deletes a hospital.
func (a *HospitalAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("hospitals").Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hospital delete query", err)
	}
	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete hospital", err)
	}
	return requireAffected(res, fmt.Sprintf("hospital with id %s not found", id))
}
