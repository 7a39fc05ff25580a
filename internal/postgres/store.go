package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog/internal/service"
)

var _ service.Transactor = (*Store)(nil)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every store runs
// unchanged inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the per-table stores over one connection source.
type Store struct {
	pool *pgxpool.Pool

	Products *ProductStore
	Variants *VariantStore
	Images   *ImageStore
}

// NewStore creates a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		Products: &ProductStore{db: pool},
		Variants: &VariantStore{db: pool},
		Images:   &ImageStore{db: pool},
	}
}

// InTx runs fn with stores bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx service.Stores) error) error {
	if s.pool == nil {
		return fmt.Errorf("store is already transaction-scoped")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txStores := service.Stores{
		Products: &ProductStore{db: tx},
		Variants: &VariantStore{db: tx},
		Images:   &ImageStore{db: tx},
	}

	if err := fn(txStores); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Stores returns the pool-backed stores as the service-facing bundle.
func (s *Store) Stores() service.Stores {
	return service.Stores{
		Products: s.Products,
		Variants: s.Variants,
		Images:   s.Images,
	}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505). The unique indexes on external_id are the
// backstop for the advisory existence checks in the service layer.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
