package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavolahq/tavola/internal/domain"
)

// querier is the slice of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same repositories work inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool     *pgxpool.Pool // nil inside a transaction
	projects *ProjectRepo
	boards   *BoardRepo
	columns  *ColumnRepo
	cards    *CardRepo
	activity *ActivityRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	s := newWith(pool)
	s.pool = pool
	return s, nil
}

func newWith(db querier) *Store {
	return &Store{
		projects: NewProjectRepo(db),
		boards:   NewBoardRepo(db),
		columns:  NewColumnRepo(db),
		cards:    NewCardRepo(db),
		activity: NewActivityRepo(db),
	}
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Projects() domain.ProjectRepository { return s.projects }
func (s *Store) Boards() domain.BoardRepository     { return s.boards }
func (s *Store) Columns() domain.ColumnRepository   { return s.columns }
func (s *Store) Cards() domain.CardRepository       { return s.cards }
func (s *Store) Activity() domain.ActivityRepository {
	return s.activity
}

// InTx runs fn against a store bound to one transaction. Nested calls reuse
// the enclosing transaction. Serialization failures and unique violations
// surface as domain.ErrConflict so the placement engine can retry.
func (s *Store) InTx(ctx context.Context, fn func(domain.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.InTx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newWith(tx)); err != nil {
		return mapConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapConflict(fmt.Errorf("postgres.InTx: commit: %w", err))
	}
	return nil
}

// mapConflict translates retryable postgres failures into the domain
// conflict sentinel.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%v: %w", err, domain.ErrConflict)
		}
	}
	return err
}
