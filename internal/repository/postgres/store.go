// Package postgres provides Postgres-backed implementations of the snippet and tag repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roguepikachu/snipsnap/internal/repository"
)

// DBTX is the subset of pgx shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements repository.Store on a pgx pool. A Store bound to a
// transaction has a nil pool and runs nested units of work in that transaction.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewStore creates a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Snippets returns a snippet repository bound to the store's connection.
func (s *Store) Snippets() repository.SnippetRepository {
	return NewSnippetRepository(s.db)
}

// Tags returns a tag repository bound to the store's connection.
func (s *Store) Tags() repository.TagRepository {
	return NewTagRepository(s.db)
}

// WithinTx runs fn inside a read-committed transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.inTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// WithinReadTx runs fn inside a repeatable-read, read-only transaction.
func (s *Store) WithinReadTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.inTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *Store) inTx(ctx context.Context, opts pgx.TxOptions, fn func(repository.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(ctx)
	}()
	if err := fn(&Store{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ repository.Store = (*Store)(nil)
