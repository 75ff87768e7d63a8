package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/expopass/server/internal/domain/locations"
)

var _ locations.CountryRepository = (*CountryRepository)(nil)

const countryColumns = `id, ulid, name, code, is_active, state_count, usage_count, created_at, updated_at`

type countryRow struct {
	ID         string
	ULID       string
	Name       string
	Code       string
	IsActive   bool
	StateCount int
	UsageCount int
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

func scanCountry(row pgx.Row) (*locations.Country, error) {
	var r countryRow
	err := row.Scan(&r.ID, &r.ULID, &r.Name, &r.Code, &r.IsActive, &r.StateCount, &r.UsageCount, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, locations.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &locations.Country{
		ID:         r.ID,
		ULID:       r.ULID,
		Name:       r.Name,
		Code:       r.Code,
		IsActive:   r.IsActive,
		StateCount: r.StateCount,
		UsageCount: r.UsageCount,
		CreatedAt:  timeOf(r.CreatedAt),
		UpdatedAt:  timeOf(r.UpdatedAt),
	}, nil
}

// GetByID compares on the text form so a malformed ID reads as absent
// instead of failing the uuid cast.
func (r *CountryRepository) GetByID(ctx context.Context, id string) (*locations.Country, error) {
	country, err := scanCountry(r.queryer().QueryRow(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE id::text = $1`, id))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get country %s: %w", id, err)
	}
	return country, err
}

func (r *CountryRepository) GetByCode(ctx context.Context, code string) (*locations.Country, error) {
	country, err := scanCountry(r.queryer().QueryRow(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE code = $1`,
		locations.NormalizeCode(code)))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get country by code %s: %w", code, err)
	}
	return country, err
}

func (r *CountryRepository) GetByName(ctx context.Context, name string) (*locations.Country, error) {
	country, err := scanCountry(r.queryer().QueryRow(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE LOWER(name) = LOWER($1)`, name))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get country by name %s: %w", name, err)
	}
	return country, err
}

func (r *CountryRepository) Create(ctx context.Context, params locations.CountryCreateParams) (*locations.Country, error) {
	country, err := scanCountry(r.queryer().QueryRow(ctx, `
INSERT INTO countries (ulid, name, code)
VALUES ($1, $2, $3)
RETURNING `+countryColumns,
		params.ULID, params.Name, params.Code))
	if isUniqueViolation(err) {
		return nil, locations.ErrDuplicateKey
	}
	if err != nil {
		return nil, fmt.Errorf("create country %s: %w", params.Code, err)
	}
	return country, nil
}

func (r *CountryRepository) List(ctx context.Context, params locations.ListParams) ([]locations.Country, int, error) {
	queryer := r.queryer()
	where := `($1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')
   AND ($2 OR is_active)`

	var total int
	if err := queryer.QueryRow(ctx,
		`SELECT COUNT(*) FROM countries WHERE `+where,
		params.Query, params.IncludeInactive).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count countries: %w", err)
	}

	rows, err := queryer.Query(ctx, `
SELECT `+countryColumns+`
  FROM countries
 WHERE `+where+`
 ORDER BY name ASC
 OFFSET $3 LIMIT $4`,
		params.Query, params.IncludeInactive, params.Offset, clampLimit(params.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var items []locations.Country
	for rows.Next() {
		country, err := scanCountry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan country: %w", err)
		}
		items = append(items, *country)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate countries: %w", err)
	}
	return items, total, nil
}

func (r *CountryRepository) IncrementStateCount(ctx context.Context, id string, delta int) error {
	return execOnRow(ctx, r.queryer(), "country", id, `
UPDATE countries
   SET state_count = GREATEST(state_count + $2, 0), updated_at = now()
 WHERE id = $1`, id, delta)
}

func (r *CountryRepository) SetUsageCount(ctx context.Context, id string, count int) error {
	return execOnRow(ctx, r.queryer(), "country", id, `
UPDATE countries SET usage_count = $2, updated_at = now() WHERE id = $1`, id, count)
}

func (r *CountryRepository) SetActive(ctx context.Context, id string, active bool) error {
	return execOnRow(ctx, r.queryer(), "country", id, `
UPDATE countries SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *CountryRepository) Delete(ctx context.Context, id string) error {
	return execOnRow(ctx, r.queryer(), "country", id, `DELETE FROM countries WHERE id = $1`, id)
}

func (r *CountryRepository) CountChildren(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.queryer().QueryRow(ctx,
		`SELECT COUNT(*) FROM states WHERE country_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count states of country %s: %w", id, err)
	}
	return count, nil
}

// execOnRow runs a single-row statement and maps zero affected rows to
// ErrNotFound.
func execOnRow(ctx context.Context, q queryer, entity, id, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", entity, id, err)
	}
	if tag.RowsAffected() == 0 {
		return locations.ErrNotFound
	}
	return nil
}
