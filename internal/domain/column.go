package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ColumnLocation is the closed set of places a column (and therefore a card)
// can live on a board. BOARD columns are the user-visible workflow columns;
// every other location has exactly one catch-all column per board.
type ColumnLocation string

const (
	LocationBoard    ColumnLocation = "BOARD"
	LocationBacklog  ColumnLocation = "BACKLOG"
	LocationDeferred ColumnLocation = "DEFERRED"
	LocationArchive  ColumnLocation = "ARCHIVE"
	LocationTrash    ColumnLocation = "TRASH"
)

// Valid reports whether l is a known location.
func (l ColumnLocation) Valid() bool {
	switch l {
	case LocationBoard, LocationBacklog, LocationDeferred, LocationArchive, LocationTrash:
		return true
	default:
		return false
	}
}

// SideLocations lists every non-BOARD location, in provisioning order.
// Board creation guarantees one column per entry.
func SideLocations() []ColumnLocation {
	return []ColumnLocation{LocationBacklog, LocationDeferred, LocationArchive, LocationTrash}
}

// ColumnDefinition is the workflow status category a column confers on the
// cards inside it.
type ColumnDefinition string

const (
	DefinitionOpen     ColumnDefinition = "OPEN"
	DefinitionClosed   ColumnDefinition = "CLOSED"
	DefinitionBacklog  ColumnDefinition = "BACKLOG"
	DefinitionDeferred ColumnDefinition = "DEFERRED"
)

// MappedDefinition returns the definition a card assumes when it enters the
// given location. Cards entering ARCHIVE or TRASH count as closed.
func (l ColumnLocation) MappedDefinition() ColumnDefinition {
	switch l {
	case LocationBacklog:
		return DefinitionBacklog
	case LocationDeferred:
		return DefinitionDeferred
	case LocationArchive, LocationTrash:
		return DefinitionClosed
	default:
		return DefinitionOpen
	}
}

type BoardColumn struct {
	ID         uuid.UUID
	BoardID    uuid.UUID
	Name       string
	Location   ColumnLocation
	Order      int // position among sibling BOARD columns; 0 elsewhere
	Definition ColumnDefinition
}

// NewBoardColumn creates a column with validated required fields.
func NewBoardColumn(boardID uuid.UUID, name string, location ColumnLocation, order int, definition ColumnDefinition) (*BoardColumn, error) {
	if boardID == uuid.Nil {
		return nil, fmt.Errorf("column: board ID is required: %w", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("column: name is required: %w", ErrValidation)
	}
	if !location.Valid() {
		return nil, fmt.Errorf("column: unknown location %q: %w", location, ErrValidation)
	}
	return &BoardColumn{
		ID:         uuid.New(),
		BoardID:    boardID,
		Name:       name,
		Location:   location,
		Order:      order,
		Definition: definition,
	}, nil
}

type ColumnRepository interface {
	Create(ctx context.Context, c *BoardColumn) error
	GetByID(ctx context.Context, id uuid.UUID) (*BoardColumn, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*BoardColumn, error)

	// FindDefaultFor returns the unique catch-all column for a board and
	// location. For LocationBoard it returns the lowest-ordered workflow
	// column. ErrNotFound here indicates a data-consistency fault: the
	// columns are provisioned at board creation.
	FindDefaultFor(ctx context.Context, boardID uuid.UUID, location ColumnLocation) (*BoardColumn, error)
}
