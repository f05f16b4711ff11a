package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
	"github.com/tavolahq/tavola/internal/placement"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Projects() domain.ProjectRepository
	Boards() domain.BoardRepository
	Columns() domain.ColumnRepository
	Cards() domain.CardRepository
	Activity() domain.ActivityRepository
}

// PlacementEngine abstracts card placement operations for handler testing.
// *placement.Engine satisfies this interface.
type PlacementEngine interface {
	CreateCard(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error)
	CreateCardFromTop(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error)
	CloneCard(ctx context.Context, cardID, columnID, userID uuid.UUID) (*domain.Card, error)
	MoveCardToColumnAndReorder(ctx context.Context, cardID, prevColumnID, newColumnID uuid.UUID, newOrder []uuid.UUID, userID uuid.UUID) (*placement.MoveResult, error)
	MoveCardsToLocation(ctx context.Context, cardIDs []uuid.UUID, prevColumnID uuid.UUID, location domain.ColumnLocation, userID uuid.UUID) (*placement.BulkMoveResult, error)
	UpdateCardOrder(ctx context.Context, columnID uuid.UUID, cardIDs []uuid.UUID) error
	RenameCard(ctx context.Context, cardID uuid.UUID, name string, userID uuid.UUID) (*domain.Card, error)
	CreateBoard(ctx context.Context, projectID uuid.UUID, name, shortName string, columns []placement.ColumnSpec) (*domain.Board, error)
}

// EventSink abstracts event emission for handler testing.
// *events.Emitter satisfies this interface.
type EventSink interface {
	EmitCreateCard(project, board string, columnID, cardID uuid.UUID)
	EmitUpdateCard(project, board string, columnID, cardID uuid.UUID)
	EmitUpdateCardPosition(board string, columnID uuid.UUID)
	EmitCardHasMoved(project, board string, cardIDs []uuid.UUID)
	EmitMoveCardOutsideOfBoard(board string, location domain.ColumnLocation)
	EmitMoveCardFromOutsideOfBoard(board string, location domain.ColumnLocation)
	EmitCreateProject(project string)
	EmitUpdateProject(project string)
	EmitCreateBoard(project, board string)
	EmitUpdateBoard(project, board string)
}
