package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Card struct {
	ID        uuid.UUID
	ColumnID  uuid.UUID
	BoardID   uuid.UUID // derived from the column, kept for convenience
	Name      string
	Sequence  int   // board-scoped, human-facing ("DEMO-42")
	Order     int64 // position key, unique within the column
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCard creates a Card with validated required fields. Sequence and Order
// are assigned by the placement engine.
func NewCard(name string, columnID, boardID, userID uuid.UUID) (*Card, error) {
	if name == "" {
		return nil, fmt.Errorf("card: name is required: %w", ErrValidation)
	}
	if columnID == uuid.Nil {
		return nil, fmt.Errorf("card: column ID is required: %w", ErrValidation)
	}
	now := time.Now()
	return &Card{
		ID:        uuid.New(),
		ColumnID:  columnID,
		BoardID:   boardID,
		Name:      name,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CardOrder pairs a card with its position key, sorted ascending when
// returned from ColumnOrders.
type CardOrder struct {
	CardID uuid.UUID
	Order  int64
}

type CardRepository interface {
	Create(ctx context.Context, c *Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)
	GetBySequence(ctx context.Context, boardShortName string, sequence int) (*Card, error)
	ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*Card, error)

	// ListByBoardLocationPaginated returns up to limit cards in the given
	// board location ordered by most recent mutation, offset by
	// page*(limit-1). Callers pass one more than the page size so the
	// extra row signals that further pages exist.
	ListByBoardLocationPaginated(ctx context.Context, boardID uuid.UUID, location ColumnLocation, page, limit int) ([]*Card, error)

	Rename(ctx context.Context, id uuid.UUID, name string) error

	// MoveToColumn reassigns column membership and position key for one
	// card. Column membership changes are atomic within the enclosing
	// transaction: a card is never observable between columns.
	MoveToColumn(ctx context.Context, id, columnID uuid.UUID, order int64) error

	// ColumnOrders returns the (cardID, order) pairs of a column sorted by
	// order ascending.
	ColumnOrders(ctx context.Context, columnID uuid.UUID) ([]CardOrder, error)

	// ApplyOrders rewrites position keys for the given cards of a column.
	ApplyOrders(ctx context.Context, columnID uuid.UUID, orders map[uuid.UUID]int64) error
}
