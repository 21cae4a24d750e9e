package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixcore/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// WithinTx runs fn in a serializable transaction. Serialization failures and
// deadlocks are reported as repository.ErrTxConflict so callers can retry.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		return fn(ctx, repos{db: tx})
	})
	if err != nil && IsRetryable(err) {
		return fmt.Errorf("%w: %w", repository.ErrTxConflict, err)
	}

	return err
}

func (s *Store) Categories() repository.CategoryRepo     { return &CategoryRepo{db: s.pool} }
func (s *Store) Events() repository.EventRepo             { return &EventRepo{db: s.pool} }
func (s *Store) Sections() repository.SectionRepo         { return &SectionRepo{db: s.pool} }
func (s *Store) Tickets() repository.TicketRepo           { return &TicketRepo{db: s.pool} }
func (s *Store) Transactions() repository.TransactionRepo { return &TransactionRepo{db: s.pool} }

type repos struct {
	db DB
}

func (r repos) Categories() repository.CategoryRepo     { return &CategoryRepo{db: r.db} }
func (r repos) Events() repository.EventRepo             { return &EventRepo{db: r.db} }
func (r repos) Sections() repository.SectionRepo         { return &SectionRepo{db: r.db} }
func (r repos) Tickets() repository.TicketRepo           { return &TicketRepo{db: r.db} }
func (r repos) Transactions() repository.TransactionRepo { return &TransactionRepo{db: r.db} }
