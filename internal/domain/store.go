package domain

import "context"

// Store aggregates the repositories and exposes transactional execution.
// InTx runs fn against a store whose repositories share one transaction;
// fn returning an error rolls everything back. Serialization failures
// surface as ErrConflict.
type Store interface {
	Projects() ProjectRepository
	Boards() BoardRepository
	Columns() ColumnRepository
	Cards() CardRepository
	Activity() ActivityRepository

	InTx(ctx context.Context, fn func(Store) error) error
}
