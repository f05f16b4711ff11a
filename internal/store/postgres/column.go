package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tavolahq/tavola/internal/domain"
)

type ColumnRepo struct {
	db querier
}

func NewColumnRepo(db querier) *ColumnRepo {
	return &ColumnRepo{db: db}
}

func (r *ColumnRepo) Create(ctx context.Context, c *domain.BoardColumn) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO board_columns (id, board_id, name, location, col_order, definition)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.BoardID, c.Name, c.Location, c.Order, c.Definition,
	)
	if err != nil {
		return fmt.Errorf("columnRepo.Create: %w", err)
	}
	return nil
}

func (r *ColumnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BoardColumn, error) {
	var c domain.BoardColumn
	err := r.db.QueryRow(ctx,
		`SELECT id, board_id, name, location, col_order, definition
		 FROM board_columns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.BoardID, &c.Name, &c.Location, &c.Order, &c.Definition)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("columnRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("columnRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *ColumnRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.BoardColumn, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, board_id, name, location, col_order, definition
		 FROM board_columns WHERE board_id = $1
		 ORDER BY location, col_order`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("columnRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	var cols []*domain.BoardColumn
	for rows.Next() {
		var c domain.BoardColumn
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.Location, &c.Order, &c.Definition); err != nil {
			return nil, fmt.Errorf("columnRepo.ListByBoard: scan: %w", err)
		}
		cols = append(cols, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("columnRepo.ListByBoard: rows: %w", err)
	}
	return cols, nil
}

// FindDefaultFor returns the catch-all column for the location. Off-board
// locations have exactly one column per board (enforced by a partial unique
// index); for BOARD the lowest-ordered workflow column is the default.
func (r *ColumnRepo) FindDefaultFor(ctx context.Context, boardID uuid.UUID, location domain.ColumnLocation) (*domain.BoardColumn, error) {
	var c domain.BoardColumn
	err := r.db.QueryRow(ctx,
		`SELECT id, board_id, name, location, col_order, definition
		 FROM board_columns WHERE board_id = $1 AND location = $2
		 ORDER BY col_order LIMIT 1`,
		boardID, location,
	).Scan(&c.ID, &c.BoardID, &c.Name, &c.Location, &c.Order, &c.Definition)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("columnRepo.FindDefaultFor: board %s location %s: %w", boardID, location, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("columnRepo.FindDefaultFor: %w", err)
	}
	return &c, nil
}
