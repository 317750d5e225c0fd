package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/wilaya"
)

var wilayaColumns = columns("id", "code", "name", "name_ar")

type wilayaRow struct {
	ID     string `db:"id"`
	Code   string `db:"code"`
	Name   string `db:"name"`
	NameAr string `db:"name_ar"`
}

func (r wilayaRow) toEntity() *entities.Wilaya {
	return &entities.Wilaya{ID: r.ID, Code: r.Code, Name: r.Name, NameAr: r.NameAr}
}

// WilayaAdapter reads the wilayas table.
type WilayaAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewWilayaAdapter creates a new wilaya adapter.
func NewWilayaAdapter(client *postgres.Client) repositories.WilayaRepository {
	return &WilayaAdapter{client: client, db: newDialect(client)}
}

// List returns every wilaya ordered by code.
func (a *WilayaAdapter) List(ctx context.Context) ([]*entities.Wilaya, error) {
	query, args, err := a.db.From("wilayas").Select(wilayaColumns...).Order(goqu.I("code").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build wilaya list query", err)
	}
	var rows []wilayaRow
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list wilayas", err)
	}
	out := make([]*entities.Wilaya, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out, nil
}

// GetByCode retrieves a wilaya by its two-digit code.
func (a *WilayaAdapter) GetByCode(ctx context.Context, code string) (*entities.Wilaya, error) {
	return a.getOne(ctx, goqu.C("code").Eq(code), fmt.Sprintf("wilaya with code %s not found", code))
}

// GetByID retrieves a wilaya by ID.
func (a *WilayaAdapter) GetByID(ctx context.Context, id string) (*entities.Wilaya, error) {
	return a.getOne(ctx, goqu.C("id").Eq(id), fmt.Sprintf("wilaya with id %s not found", id))
}

func (a *WilayaAdapter) getOne(ctx context.Context, where goqu.Expression, notFound string) (*entities.Wilaya, error) {
	query, args, err := a.db.From("wilayas").Select(wilayaColumns...).Where(where).Limit(1).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build wilaya query", err)
	}
	var row wilayaRow
	err = a.client.X().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get wilaya", err)
	}
	return row.toEntity(), nil
}

// SeedWilayas inserts the static wilaya table, skipping codes already
// present. It returns the number of rows inserted.
func SeedWilayas(ctx context.Context, client *postgres.Client) (int64, error) {
	all := wilaya.All()
	rows := make([]interface{}, 0, len(all))
	for _, w := range all {
		rows = append(rows, goqu.Record{
			"id":      uuid.NewString(),
			"code":    w.Code,
			"name":    w.Name,
			"name_ar": w.NameAr,
		})
	}

	query, args, err := newDialect(client).Insert("wilayas").Rows(rows...).
		OnConflict(goqu.DoNothing()).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build wilaya seed query", err)
	}
	res, err := client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to seed wilayas", err)
	}
	return res.RowsAffected()
}
