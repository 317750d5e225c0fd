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

var adminColumns = columns("id", "name", "email", "password_hash", "permissions", "created_at", "updated_at")

type adminRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Permissions  pq.StringArray `db:"permissions"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r adminRow) toEntity() *entities.Admin {
	perms := []string(r.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return &entities.Admin{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Permissions:  perms,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// AdminAdapter implements admin persistence in Postgres.
type AdminAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAdminAdapter creates a new admin adapter.
func NewAdminAdapter(client *postgres.Client) repositories.AdminRepository {
	return &AdminAdapter{client: client, db: newDialect(client)}
}

// Create inserts an admin.
func (a *AdminAdapter) Create(ctx context.Context, admin *entities.Admin) error {
	query, args, err := a.db.Insert("admins").Rows(goqu.Record{
		"id":            admin.ID,
		"name":          admin.Name,
		"email":         admin.Email,
		"password_hash": admin.PasswordHash,
		"permissions":   pq.StringArray(admin.Permissions),
		"created_at":    admin.CreatedAt,
		"updated_at":    admin.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build admin insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("an admin with this email already exists")
		}
		return apperrors.NewInternalError("failed to create admin", err)
	}
	return nil
}

// GetByID retrieves an admin by ID.
func (a *AdminAdapter) GetByID(ctx context.Context, id string) (*entities.Admin, error) {
	return a.getOne(ctx, goqu.C("id").Eq(id), fmt.Sprintf("admin with id %s not found", id))
}

// GetByEmail retrieves an admin by email.
func (a *AdminAdapter) GetByEmail(ctx context.Context, email string) (*entities.Admin, error) {
	return a.getOne(ctx, goqu.Func("LOWER", goqu.C("email")).Eq(email), "admin not found")
}

func (a *AdminAdapter) getOne(ctx context.Context, where goqu.Expression, notFound string) (*entities.Admin, error) {
	query, args, err := a.db.From("admins").Select(adminColumns...).Where(where).Limit(1).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build admin query", err)
	}
	var row adminRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get admin", err)
	}
	return row.toEntity(), nil
}

// List retrieves admins ordered by name.
func (a *AdminAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Admin, error) {
	ds := a.db.From("admins").Select(adminColumns...).Order(goqu.I("name").Asc()).Limit(pageLimit(limit))
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build admin list query", err)
	}
	var rows []adminRow
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list admins", err)
	}
	out := make([]*entities.Admin, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out, nil
}

// Update updates an admin.
func (a *AdminAdapter) Update(ctx context.Context, admin *entities.Admin) error {
	query, args, err := a.db.Update("admins").Set(goqu.Record{
		"name":          admin.Name,
		"email":         admin.Email,
		"password_hash": admin.PasswordHash,
		"permissions":   pq.StringArray(admin.Permissions),
		"updated_at":    admin.UpdatedAt,
	}).Where(goqu.C("id").Eq(admin.ID)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build admin update query", err)
	}
	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("an admin with this email already exists")
		}
		return apperrors.NewInternalError("failed to update admin", err)
	}
	return requireAffected(res, fmt.Sprintf("admin with id %s not found", admin.ID))
}

// Delete deletes an admin.
func (a *AdminAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("admins").Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build admin delete query", err)
	}
	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete admin", err)
	}
	return requireAffected(res, fmt.Sprintf("admin with id %s not found", id))
}
