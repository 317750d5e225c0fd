package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/redhope/backend/pkg/errors"
)

var userColumns = columns(
	"id", "name", "email", "phone", "password_hash", "blood_type", "is_donor",
	"is_available", "city_id", "latitude", "longitude", "created_at", "updated_at",
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Phone        string         `db:"phone"`
	PasswordHash string         `db:"password_hash"`
	BloodType    sql.NullString `db:"blood_type"`
	IsDonor      bool           `db:"is_donor"`
	IsAvailable  bool           `db:"is_available"`
	CityID       string         `db:"city_id"`
	Latitude     float64        `db:"latitude"`
	Longitude    float64        `db:"longitude"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) toEntity() *entities.User {
	return &entities.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		BloodType:    entities.BloodType(r.BloodType.String),
		IsDonor:      r.IsDonor,
		IsAvailable:  r.IsAvailable,
		CityID:       r.CityID,
		Location:     entities.Coordinate{Lat: r.Latitude, Lng: r.Longitude}.Point(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func userRecord(u *entities.User) goqu.Record {
	coord := u.Location.Coordinate()
	return goqu.Record{
		"name":          u.Name,
		"email":         u.Email,
		"phone":         u.Phone,
		"password_hash": u.PasswordHash,
		"blood_type":    nullString(string(u.BloodType)),
		"is_donor":      u.IsDonor,
		"is_available":  u.IsAvailable,
		"city_id":       u.CityID,
		"latitude":      coord.Lat,
		"longitude":     coord.Lng,
		"updated_at":    u.UpdatedAt,
	}
}

// UserAdapter implements user persistence in Postgres.
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter.
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     newDialect(client),
	}
}

// Create inserts a user. A duplicate email is a conflict.
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	record := userRecord(user)
	record["id"] = user.ID
	record["created_at"] = user.CreatedAt

	query, args, err := a.db.Insert("users").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("a user with this email already exists")
		}
		return apperrors.NewInternalError("failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getOne(ctx, goqu.C("id").Eq(id), fmt.Sprintf("user with id %s not found", id))
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return a.getOne(ctx, goqu.Func("LOWER", goqu.C("email")).Eq(email), "user not found")
}

func (a *UserAdapter) getOne(ctx context.Context, where goqu.Expression, notFound string) (*entities.User, error) {
	query, args, err := a.db.From("users").Select(userColumns...).Where(where).Limit(1).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build user query", err)
	}

	var row userRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return row.toEntity(), nil
}

// List retrieves users matching filter
func (a *UserAdapter) List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	ds := a.db.From("users").Select(userColumns...)
	if filter.CityID != "" {
		ds = ds.Where(goqu.C("city_id").Eq(filter.CityID))
	}
	if filter.DonorsOnly {
		ds = ds.Where(goqu.C("is_donor").IsTrue())
	}
	if filter.OnlyVisible {
		ds = ds.Where(goqu.C("is_available").IsTrue())
	}
	if len(filter.BloodTypes) > 0 {
		types := make([]string, len(filter.BloodTypes))
		for i, bt := range filter.BloodTypes {
			types[i] = string(bt)
		}
		ds = ds.Where(goqu.C("blood_type").In(types))
	}
	ds = ds.Order(goqu.I("created_at").Desc()).Limit(pageLimit(filter.Limit))
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build user list query", err)
	}

	var rows []userRow
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}
	out := make([]*entities.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out, nil
}

// Update updates a user
func (a *UserAdapter) Update(ctx context.Context, user *entities.User) error {
	query, args, err := a.db.Update("users").Set(userRecord(user)).Where(goqu.C("id").Eq(user.ID)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user update query", err)
	}
	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("a user with this email already exists")
		}
		return apperrors.NewInternalError("failed to update user", err)
	}
	return requireAffected(res, fmt.Sprintf("user with id %s not found", user.ID))
}

// Delete deletes a user
func (a *UserAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("users").Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user delete query", err)
	}
	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete user", err)
	}
	return requireAffected(res, fmt.Sprintf("user with id %s not found", id))
}

func requireAffected(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read affected rows", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(notFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
