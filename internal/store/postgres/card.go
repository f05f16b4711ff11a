package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tavolahq/tavola/internal/domain"
)

type CardRepo struct {
	db querier
}

func NewCardRepo(db querier) *CardRepo {
	return &CardRepo{db: db}
}

const cardColumns = `id, column_id, board_id, name, sequence, card_order, created_by, created_at, updated_at`

func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cards (id, column_id, board_id, name, sequence, card_order, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.ColumnID, c.BoardID, c.Name, c.Sequence, c.Order, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}
	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	var c domain.Card
	err := r.db.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, id,
	).Scan(&c.ID, &c.ColumnID, &c.BoardID, &c.Name, &c.Sequence, &c.Order, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *CardRepo) GetBySequence(ctx context.Context, boardShortName string, sequence int) (*domain.Card, error) {
	var c domain.Card
	err := r.db.QueryRow(ctx,
		`SELECT c.id, c.column_id, c.board_id, c.name, c.sequence, c.card_order, c.created_by, c.created_at, c.updated_at
		 FROM cards c JOIN boards b ON b.id = c.board_id
		 WHERE b.short_name = $1 AND c.sequence = $2`,
		boardShortName, sequence,
	).Scan(&c.ID, &c.ColumnID, &c.BoardID, &c.Name, &c.Sequence, &c.Order, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetBySequence: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetBySequence: %w", err)
	}
	return &c, nil
}

func (r *CardRepo) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Card, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE column_id = $1 ORDER BY card_order`,
		columnID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByColumn: %w", err)
	}
	defer rows.Close()

	return scanCards(rows, "cardRepo.ListByColumn")
}

func (r *CardRepo) ListByBoardLocationPaginated(ctx context.Context, boardID uuid.UUID, location domain.ColumnLocation, page, limit int) ([]*domain.Card, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.column_id, c.board_id, c.name, c.sequence, c.card_order, c.created_by, c.created_at, c.updated_at
		 FROM cards c JOIN board_columns bc ON bc.id = c.column_id
		 WHERE bc.board_id = $1 AND bc.location = $2
		 ORDER BY c.updated_at DESC
		 LIMIT $3 OFFSET $4`,
		boardID, location, limit, page*(limit-1),
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByBoardLocationPaginated: %w", err)
	}
	defer rows.Close()

	return scanCards(rows, "cardRepo.ListByBoardLocationPaginated")
}

func (r *CardRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cards SET name = $1, updated_at = now() WHERE id = $2`,
		name, id,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Rename: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Rename: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CardRepo) MoveToColumn(ctx context.Context, id, columnID uuid.UUID, order int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cards SET column_id = $1, card_order = $2, updated_at = now() WHERE id = $3`,
		columnID, order, id,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.MoveToColumn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.MoveToColumn: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CardRepo) ColumnOrders(ctx context.Context, columnID uuid.UUID) ([]domain.CardOrder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, card_order FROM cards WHERE column_id = $1 ORDER BY card_order`,
		columnID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ColumnOrders: %w", err)
	}
	defer rows.Close()

	var orders []domain.CardOrder
	for rows.Next() {
		var co domain.CardOrder
		if err := rows.Scan(&co.CardID, &co.Order); err != nil {
			return nil, fmt.Errorf("cardRepo.ColumnOrders: scan: %w", err)
		}
		orders = append(orders, co)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardRepo.ColumnOrders: rows: %w", err)
	}
	return orders, nil
}

func (r *CardRepo) ApplyOrders(ctx context.Context, columnID uuid.UUID, orders map[uuid.UUID]int64) error {
	for id, order := range orders {
		tag, err := r.db.Exec(ctx,
			`UPDATE cards SET card_order = $1, updated_at = now() WHERE id = $2 AND column_id = $3`,
			order, id, columnID,
		)
		if err != nil {
			return fmt.Errorf("cardRepo.ApplyOrders: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("cardRepo.ApplyOrders: card %s: %w", id, domain.ErrNotFound)
		}
	}
	return nil
}

func scanCards(rows pgx.Rows, caller string) ([]*domain.Card, error) {
	var cards []*domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(
			&c.ID, &c.ColumnID, &c.BoardID, &c.Name, &c.Sequence, &c.Order,
			&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		cards = append(cards, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}
	return cards, nil
}
