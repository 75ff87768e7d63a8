package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expopass/server/internal/domain/locations"
)

// Repository is the pgx-backed locations.Store. A zero tx means every
// repository call runs on the pool; WithTx hands out a copy bound to
// one transaction.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ locations.Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Countries() locations.CountryRepository {
	return &CountryRepository{repo{pool: r.pool, tx: r.tx}}
}

func (r *Repository) States() locations.StateRepository {
	return &StateRepository{repo{pool: r.pool, tx: r.tx}}
}

func (r *Repository) Cities() locations.CityRepository {
	return &CityRepository{repo{pool: r.pool, tx: r.tx}}
}

func (r *Repository) PostalCodes() locations.PostalCodeRepository {
	return &PostalCodeRepository{repo{pool: r.pool, tx: r.tx}}
}

func (r *Repository) Registrations() locations.RegistrationCounter {
	return &RegistrationRepository{repo{pool: r.pool, tx: r.tx}}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, locations.Store) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// repo carries the pool/tx pair shared by every entity repository.
type repo struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r repo) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

type CountryRepository struct{ repo }

type StateRepository struct{ repo }

type CityRepository struct{ repo }

type PostalCodeRepository struct{ repo }

type RegistrationRepository struct{ repo }
