package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/expopass/server/internal/domain/locations"
)

var _ locations.StateRepository = (*StateRepository)(nil)

const stateColumns = `id, ulid, country_id, name, code, is_active, city_count, usage_count, created_at, updated_at`

type stateRow struct {
	ID         string
	ULID       string
	CountryID  string
	Name       string
	Code       string
	IsActive   bool
	CityCount  int
	UsageCount int
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

func scanState(row pgx.Row) (*locations.State, error) {
	var r stateRow
	err := row.Scan(&r.ID, &r.ULID, &r.CountryID, &r.Name, &r.Code, &r.IsActive, &r.CityCount, &r.UsageCount, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, locations.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &locations.State{
		ID:         r.ID,
		ULID:       r.ULID,
		CountryID:  r.CountryID,
		Name:       r.Name,
		Code:       r.Code,
		IsActive:   r.IsActive,
		CityCount:  r.CityCount,
		UsageCount: r.UsageCount,
		CreatedAt:  timeOf(r.CreatedAt),
		UpdatedAt:  timeOf(r.UpdatedAt),
	}, nil
}

func (r *StateRepository) GetByID(ctx context.Context, id string) (*locations.State, error) {
	state, err := scanState(r.queryer().QueryRow(ctx,
		`SELECT `+stateColumns+` FROM states WHERE id::text = $1`, id))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get state %s: %w", id, err)
	}
	return state, err
}

func (r *StateRepository) GetByCode(ctx context.Context, code string) (*locations.State, error) {
	state, err := scanState(r.queryer().QueryRow(ctx,
		`SELECT `+stateColumns+` FROM states WHERE code = $1`,
		locations.NormalizeCode(code)))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get state by code %s: %w", code, err)
	}
	return state, err
}

func (r *StateRepository) GetByName(ctx context.Context, countryID, name string) (*locations.State, error) {
	state, err := scanState(r.queryer().QueryRow(ctx,
		`SELECT `+stateColumns+` FROM states WHERE country_id = $1 AND LOWER(name) = LOWER($2)`,
		countryID, name))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get state by name %s: %w", name, err)
	}
	return state, err
}

func (r *StateRepository) Create(ctx context.Context, params locations.StateCreateParams) (*locations.State, error) {
	state, err := scanState(r.queryer().QueryRow(ctx, `
INSERT INTO states (ulid, country_id, name, code)
VALUES ($1, $2, $3, $4)
RETURNING `+stateColumns,
		params.ULID, params.CountryID, params.Name, params.Code))
	if isUniqueViolation(err) {
		return nil, locations.ErrDuplicateKey
	}
	if err != nil {
		return nil, fmt.Errorf("create state %s: %w", params.Code, err)
	}
	return state, nil
}

func (r *StateRepository) List(ctx context.Context, params locations.ListParams) ([]locations.State, int, error) {
	queryer := r.queryer()
	where := `($1 = '' OR country_id::text = $1)
   AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR code ILIKE '%' || $2 || '%')
   AND ($3 OR is_active)`

	var total int
	if err := queryer.QueryRow(ctx,
		`SELECT COUNT(*) FROM states WHERE `+where,
		params.ParentID, params.Query, params.IncludeInactive).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count states: %w", err)
	}

	rows, err := queryer.Query(ctx, `
SELECT `+stateColumns+`
  FROM states
 WHERE `+where+`
 ORDER BY name ASC
 OFFSET $4 LIMIT $5`,
		params.ParentID, params.Query, params.IncludeInactive, params.Offset, clampLimit(params.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	var items []locations.State
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan state: %w", err)
		}
		items = append(items, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate states: %w", err)
	}
	return items, total, nil
}

func (r *StateRepository) IncrementCityCount(ctx context.Context, id string, delta int) error {
	return execOnRow(ctx, r.queryer(), "state", id, `
UPDATE states
   SET city_count = GREATEST(city_count + $2, 0), updated_at = now()
 WHERE id = $1`, id, delta)
}

func (r *StateRepository) SetUsageCount(ctx context.Context, id string, count int) error {
	return execOnRow(ctx, r.queryer(), "state", id, `
UPDATE states SET usage_count = $2, updated_at = now() WHERE id = $1`, id, count)
}

func (r *StateRepository) SetActive(ctx context.Context, id string, active bool) error {
	return execOnRow(ctx, r.queryer(), "state", id, `
UPDATE states SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *StateRepository) Delete(ctx context.Context, id string) error {
	return execOnRow(ctx, r.queryer(), "state", id, `DELETE FROM states WHERE id = $1`, id)
}

func (r *StateRepository) CountChildren(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.queryer().QueryRow(ctx,
		`SELECT COUNT(*) FROM cities WHERE state_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cities of state %s: %w", id, err)
	}
	return count, nil
}
