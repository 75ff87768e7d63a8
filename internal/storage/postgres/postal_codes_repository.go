package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/expopass/server/internal/domain/locations"
)

var _ locations.PostalCodeRepository = (*PostalCodeRepository)(nil)

const postalCodeColumns = `id, ulid, city_id, pincode, area, is_active, usage_count, created_at, updated_at`

type postalCodeRow struct {
	ID         string
	ULID       string
	CityID     string
	Pincode    string
	Area       string
	IsActive   bool
	UsageCount int
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

func scanPostalCode(row pgx.Row) (*locations.PostalCode, error) {
	var r postalCodeRow
	err := row.Scan(&r.ID, &r.ULID, &r.CityID, &r.Pincode, &r.Area, &r.IsActive, &r.UsageCount, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, locations.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &locations.PostalCode{
		ID:         r.ID,
		ULID:       r.ULID,
		CityID:     r.CityID,
		Pincode:    r.Pincode,
		Area:       r.Area,
		IsActive:   r.IsActive,
		UsageCount: r.UsageCount,
		CreatedAt:  timeOf(r.CreatedAt),
		UpdatedAt:  timeOf(r.UpdatedAt),
	}, nil
}

func (r *PostalCodeRepository) GetByID(ctx context.Context, id string) (*locations.PostalCode, error) {
	pc, err := scanPostalCode(r.queryer().QueryRow(ctx,
		`SELECT `+postalCodeColumns+` FROM postal_codes WHERE id::text = $1`, id))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get postal code %s: %w", id, err)
	}
	return pc, err
}

func (r *PostalCodeRepository) GetByCompoundKey(ctx context.Context, pincode, cityID, area string) (*locations.PostalCode, error) {
	pc, err := scanPostalCode(r.queryer().QueryRow(ctx,
		`SELECT `+postalCodeColumns+` FROM postal_codes WHERE pincode = $1 AND city_id = $2 AND area = $3`,
		pincode, cityID, area))
	if err != nil && !errors.Is(err, locations.ErrNotFound) {
		return nil, fmt.Errorf("get postal code %s/%s: %w", pincode, area, err)
	}
	return pc, err
}

func (r *PostalCodeRepository) FindByPincode(ctx context.Context, pincode string) ([]locations.PostalCode, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+postalCodeColumns+`
  FROM postal_codes
 WHERE pincode = $1 AND is_active
 ORDER BY area ASC`, pincode)
	if err != nil {
		return nil, fmt.Errorf("find pincode %s: %w", pincode, err)
	}
	defer rows.Close()

	var matches []locations.PostalCode
	for rows.Next() {
		pc, err := scanPostalCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan postal code: %w", err)
		}
		matches = append(matches, *pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postal codes: %w", err)
	}
	return matches, nil
}

func (r *PostalCodeRepository) Create(ctx context.Context, params locations.PostalCodeCreateParams) (*locations.PostalCode, error) {
	pc, err := scanPostalCode(r.queryer().QueryRow(ctx, `
INSERT INTO postal_codes (ulid, city_id, pincode, area)
VALUES ($1, $2, $3, $4)
RETURNING `+postalCodeColumns,
		params.ULID, params.CityID, params.Pincode, params.Area))
	if isUniqueViolation(err) {
		return nil, locations.ErrDuplicateKey
	}
	if err != nil {
		return nil, fmt.Errorf("create postal code %s: %w", params.Pincode, err)
	}
	return pc, nil
}

func (r *PostalCodeRepository) List(ctx context.Context, params locations.ListParams) ([]locations.PostalCode, int, error) {
	queryer := r.queryer()
	where := `($1 = '' OR city_id::text = $1)
   AND ($2 = '' OR pincode ILIKE $2 || '%' OR area ILIKE '%' || $2 || '%')
   AND ($3 OR is_active)`

	var total int
	if err := queryer.QueryRow(ctx,
		`SELECT COUNT(*) FROM postal_codes WHERE `+where,
		params.ParentID, params.Query, params.IncludeInactive).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count postal codes: %w", err)
	}

	rows, err := queryer.Query(ctx, `
SELECT `+postalCodeColumns+`
  FROM postal_codes
 WHERE `+where+`
 ORDER BY pincode ASC, area ASC
 OFFSET $4 LIMIT $5`,
		params.ParentID, params.Query, params.IncludeInactive, params.Offset, clampLimit(params.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list postal codes: %w", err)
	}
	defer rows.Close()

	var items []locations.PostalCode
	for rows.Next() {
		pc, err := scanPostalCode(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan postal code: %w", err)
		}
		items = append(items, *pc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate postal codes: %w", err)
	}
	return items, total, nil
}

func (r *PostalCodeRepository) IncrementUsage(ctx context.Context, id string, delta int) error {
	return execOnRow(ctx, r.queryer(), "postal code", id, `
UPDATE postal_codes
   SET usage_count = GREATEST(usage_count + $2, 0), updated_at = now()
 WHERE id = $1`, id, delta)
}

func (r *PostalCodeRepository) SetUsageCount(ctx context.Context, id string, count int) error {
	return execOnRow(ctx, r.queryer(), "postal code", id, `
UPDATE postal_codes SET usage_count = $2, updated_at = now() WHERE id = $1`, id, count)
}

func (r *PostalCodeRepository) SetActive(ctx context.Context, id string, active bool) error {
	return execOnRow(ctx, r.queryer(), "postal code", id, `
UPDATE postal_codes SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *PostalCodeRepository) Delete(ctx context.Context, id string) error {
	return execOnRow(ctx, r.queryer(), "postal code", id, `DELETE FROM postal_codes WHERE id = $1`, id)
}
