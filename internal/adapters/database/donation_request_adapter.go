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

const donationRequestsTable = "donation_requests"

var donationRequestColumns = columns(
	"id", "blood_type", "donor_id", "requester_id", "guest_id", "phone_number",
	"city_id", "latitude", "longitude", "status", "expiry_date", "created_at", "updated_at",
)

type donationRequestRow struct {
	ID          string         `db:"id"`
	BloodType   string         `db:"blood_type"`
	DonorID     string         `db:"donor_id"`
	RequesterID sql.NullString `db:"requester_id"`
	GuestID     sql.NullString `db:"guest_id"`
	PhoneNumber sql.NullString `db:"phone_number"`
	CityID      sql.NullString `db:"city_id"`
	Latitude    float64        `db:"latitude"`
	Longitude   float64        `db:"longitude"`
	Status      string         `db:"status"`
	ExpiryDate  time.Time      `db:"expiry_date"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r donationRequestRow) toEntity() *entities.DonationRequest {
	return &entities.DonationRequest{
		ID:          r.ID,
		BloodType:   entities.BloodType(r.BloodType),
		DonorID:     r.DonorID,
		RequesterID: r.RequesterID.String,
		GuestID:     r.GuestID.String,
		PhoneNumber: r.PhoneNumber.String,
		CityID:      r.CityID.String,
		Location:    entities.Coordinate{Lat: r.Latitude, Lng: r.Longitude}.Point(),
		Status:      entities.DonationRequestStatus(r.Status),
		ExpiryDate:  r.ExpiryDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func donationRequestsFromRows(rows []donationRequestRow) []*entities.DonationRequest {
	out := make([]*entities.DonationRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out
}

// DonationRequestAdapter implements donation request persistence in Postgres.
type DonationRequestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDonationRequestAdapter creates a new donation request adapter.
func NewDonationRequestAdapter(client *postgres.Client) repositories.DonationRequestRepository {
	return &DonationRequestAdapter{
		client: client,
		db:     newDialect(client),
	}
}

// Create inserts a donation request.
func (a *DonationRequestAdapter) Create(ctx context.Context, request *entities.DonationRequest) error {
	if request == nil {
		return apperrors.NewInternalError("donation request is nil", fmt.Errorf("donation request is nil"))
	}

	coord := request.Location.Coordinate()
	record := goqu.Record{
		"id":           request.ID,
		"blood_type":   string(request.BloodType),
		"donor_id":     request.DonorID,
		"requester_id": nullString(request.RequesterID),
		"guest_id":     nullString(request.GuestID),
		"phone_number": nullString(request.PhoneNumber),
		"city_id":      nullString(request.CityID),
		"latitude":     coord.Lat,
		"longitude":    coord.Lng,
		"status":       string(request.Status),
		"expiry_date":  request.ExpiryDate,
		"created_at":   request.CreatedAt,
		"updated_at":   request.UpdatedAt,
	}

	query, args, err := a.db.Insert(donationRequestsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build donation request insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create donation request", err)
	}
	return nil
}

// GetByID retrieves a donation request by ID.
func (a *DonationRequestAdapter) GetByID(ctx context.Context, id string) (*entities.DonationRequest, error) {
	query, args, err := a.db.From(donationRequestsTable).
		Select(donationRequestColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build donation request query", err)
	}

	var row donationRequestRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("donation request with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get donation request", err)
	}
	return row.toEntity(), nil
}

// List retrieves donation requests matching filter, newest first.
func (a *DonationRequestAdapter) List(ctx context.Context, filter repositories.DonationRequestFilter) ([]*entities.DonationRequest, error) {
	ds := a.db.From(donationRequestsTable).Select(donationRequestColumns...)
	if filter.DonorID != "" {
		ds = ds.Where(goqu.C("donor_id").Eq(filter.DonorID))
	}
	if filter.CityID != "" {
		ds = ds.Where(goqu.C("city_id").Eq(filter.CityID))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(filter.Status)))
	}
	ds = ds.Order(goqu.I("created_at").Desc()).Limit(pageLimit(filter.Limit))
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build donation request list query", err)
	}

	var rows []donationRequestRow
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list donation requests", err)
	}
	return donationRequestsFromRows(rows), nil
}

// UpdateStatus is a compare-and-set on status so two concurrent transitions
// cannot both succeed.
func (a *DonationRequestAdapter) UpdateStatus(ctx context.Context, id string, from, to entities.DonationRequestStatus) (*entities.DonationRequest, error) {
	query, args, err := a.db.Update(donationRequestsTable).
		Set(goqu.Record{"status": string(to), "updated_at": time.Now().UTC()}).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(from))).
		Returning(donationRequestColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build donation request status query", err)
	}

	var row donationRequestRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		current, getErr := a.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewConflictError(fmt.Sprintf("donation request is %s, expected %s", current.Status, from))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update donation request status", err)
	}
	return row.toEntity(), nil
}

// ExpireBefore marks overdue Active requests as Expired.
func (a *DonationRequestAdapter) ExpireBefore(ctx context.Context, cutoff time.Time) ([]*entities.DonationRequest, error) {
	query, args, err := a.db.Update(donationRequestsTable).
		Set(goqu.Record{"status": string(entities.DonationRequestExpired), "updated_at": time.Now().UTC()}).
		Where(
			goqu.C("status").Eq(string(entities.DonationRequestActive)),
			goqu.C("expiry_date").Lt(cutoff),
		).
		Returning(donationRequestColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build expiry query", err)
	}

	var rows []donationRequestRow
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to expire donation requests", err)
	}
	return donationRequestsFromRows(rows), nil
}
