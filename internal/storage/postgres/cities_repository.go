package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/expopass/server/internal/domain/locations"
)

var _ locations.CityRepository = (*CityRepository)(nil)

const cityColumns = `id, ulid, state_id, name, is_active, pincode_count, usage_count, created_at, updated_at`

type cityRow struct {
	ID           string
	ULID         string
	StateID      string
	Name         string
	IsActive     bool
	PincodeCount int
	UsageCount   int
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

func scanCity(row pgx.Row) (*locations.City, error) {
	var r cityRow
	err := row.Scan(&r.ID, &r.ULID, &r.StateID, &r.Name, &r.IsActive, &r.PincodeCount, &r.UsageCount, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, locations.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &locations.City{
		ID:           r.ID,
		ULID:         r.ULID,
		StateID:      r.StateID,
		Name:         r.Name,
		IsActive:     r.IsActive,
		PincodeCount: r.PincodeCount,
		UsageCount:   r.UsageCount,
		CreatedAt:    timeOf(r.CreatedAt),
		UpdatedAt:    timeOf(r.UpdatedAt),
	}, nil
}

func (r *CityRepository) GetByID(ctx context.Context, id string) (*locations.City, error) {
	city, err := scanCity(r.queryer().QueryRow(ctx,
		`SELECT `+cityColumns+` FROM cities WHERE id::text = $1`, id))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get city %s: %w", id, err)
	}
	return city, err
}

func (r *CityRepository) GetByName(ctx context.Context, stateID, name string) (*locations.City, error) {
	city, err := scanCity(r.queryer().QueryRow(ctx,
		`SELECT `+cityColumns+` FROM cities WHERE state_id = $1 AND LOWER(name) = LOWER($2)`,
		stateID, name))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get city by name %s: %w", name, err)
	}
	return city, err
}

func (r *CityRepository) Create(ctx context.Context, params locations.CityCreateParams) (*locations.City, error) {
	city, err := scanCity(r.queryer().QueryRow(ctx, `
INSERT INTO cities (ulid, state_id, name)
VALUES ($1, $2, $3)
RETURNING `+cityColumns,
		params.ULID, params.StateID, params.Name))
	if isUniqueViolation(err) {
		return nil, locations.ErrDuplicateKey
	}
	if err != nil {
		return nil, fmt.Errorf("create city %s: %w", params.Name, err)
	}
	return city, nil
}

func (r *CityRepository) List(ctx context.Context, params locations.ListParams) ([]locations.City, int, error) {
	queryer := r.queryer()
	where := `($1 = '' OR state_id::text = $1)
   AND ($2 = '' OR name ILIKE '%' || $2 || '%')
   AND ($3 OR is_active)`

	var total int
	if err := queryer.QueryRow(ctx,
		`SELECT COUNT(*) FROM cities WHERE `+where,
		params.ParentID, params.Query, params.IncludeInactive).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cities: %w", err)
	}

	rows, err := queryer.Query(ctx, `
SELECT `+cityColumns+`
  FROM cities
 WHERE `+where+`
 ORDER BY name ASC
 OFFSET $4 LIMIT $5`,
		params.ParentID, params.Query, params.IncludeInactive, params.Offset, clampLimit(params.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var items []locations.City
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan city: %w", err)
		}
		items = append(items, *city)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate cities: %w", err)
	}
	return items, total, nil
}

func (r *CityRepository) IncrementPincodeCount(ctx context.Context, id string, delta int) error {
	return execOnRow(ctx, r.queryer(), "city", id, `
UPDATE cities
   SET pincode_count = GREATEST(pincode_count + $2, 0), updated_at = now()
 WHERE id = $1`, id, delta)
}

func (r *CityRepository) SetUsageCount(ctx context.Context, id string, count int) error {
	return execOnRow(ctx, r.queryer(), "city", id, `
UPDATE cities SET usage_count = $2, updated_at = now() WHERE id = $1`, id, count)
}

func (r *CityRepository) SetActive(ctx context.Context, id string, active bool) error {
	return execOnRow(ctx, r.queryer(), "city", id, `
UPDATE cities SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *CityRepository) Delete(ctx context.Context, id string) error {
	return execOnRow(ctx, r.queryer(), "city", id, `DELETE FROM cities WHERE id = $1`, id)
}

func (r *CityRepository) CountChildren(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.queryer().QueryRow(ctx,
		`SELECT COUNT(*) FROM postal_codes WHERE city_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count postal codes of city %s: %w", id, err)
	}
	return count, nil
}
