package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
	"github.com/tavolahq/tavola/internal/server/middleware"
)

type CreateCardInput struct {
	ColumnID uuid.UUID `path:"columnID" doc:"Destination column ID"`
	Body     struct {
		Name     string `json:"name" minLength:"1" maxLength:"500" doc:"Card name"`
		Position string `json:"position,omitempty" enum:"top,bottom" doc:"Insert position, bottom by default"`
	}
}

type CreateCardOutput struct {
	Body *domain.Card
}

type CloneCardInput struct {
	ID   uuid.UUID `path:"id" doc:"Source card ID"`
	Body struct {
		ColumnID uuid.UUID `json:"column_id" doc:"Destination column ID"`
	}
}

type CloneCardOutput struct {
	Body *domain.Card
}

type GetCardInput struct {
	ID uuid.UUID `path:"id" doc:"Card ID"`
}

type GetCardOutput struct {
	Body *domain.Card
}

type GetCardBySequenceInput struct {
	BoardShortName string `path:"boardShortName" doc:"Board short name"`
	Sequence       int    `path:"sequence" minimum:"1" doc:"Board-scoped card number"`
}

type GetCardBySequenceOutput struct {
	Body *domain.Card
}

type RenameCardInput struct {
	ID   uuid.UUID `path:"id" doc:"Card ID"`
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"500" doc:"New card name"`
	}
}

type RenameCardOutput struct {
	Body *domain.Card
}

type CardActivityInput struct {
	ID uuid.UUID `path:"id" doc:"Card ID"`
}

type CardActivityOutput struct {
	Body []*domain.ActivityEntry
}

type MoveCardInput struct {
	ID   uuid.UUID `path:"id" doc:"Card ID"`
	Body struct {
		PrevColumnID uuid.UUID   `json:"prev_column_id" doc:"Column the card is expected to be in"`
		NewColumnID  uuid.UUID   `json:"new_column_id" doc:"Destination column"`
		NewOrder     []uuid.UUID `json:"new_order" minItems:"1" doc:"Desired card order of the destination column, including the moved card"`
	}
}

type MoveCardOutput struct {
	Body *domain.Card
}

type BulkMoveCardsInput struct {
	ColumnID uuid.UUID `path:"columnID" doc:"Column the cards are expected to be in"`
	Body     struct {
		CardIDs  []uuid.UUID `json:"card_ids" minItems:"1" doc:"Cards to move, in the order they should arrive"`
		Location string      `json:"location" enum:"BACKLOG,DEFERRED,ARCHIVE,TRASH" doc:"Target board location"`
	}
}

type UpdateCardOrderInput struct {
	ColumnID uuid.UUID `path:"columnID" doc:"Column ID"`
	Body     struct {
		CardIDs []uuid.UUID `json:"card_ids" minItems:"1" doc:"Desired card order, top first"`
	}
}

func RegisterCardRoutes(api huma.API, store DataStore, engine PlacementEngine, sink EventSink) {
	huma.Register(api, huma.Operation{
		OperationID: "create-card",
		Method:      http.MethodPost,
		Path:        "/columns/{columnID}/cards",
		Summary:     "Create a card in a column",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CreateCardInput) (*CreateCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		var (
			card *domain.Card
			err  error
		)
		if input.Body.Position == "top" {
			card, err = engine.CreateCardFromTop(ctx, input.Body.Name, input.ColumnID, userID)
		} else {
			card, err = engine.CreateCard(ctx, input.Body.Name, input.ColumnID, userID)
		}
		if err != nil {
			return nil, domainError(err, "failed to create card")
		}

		project, board, err := topicNamesFor(ctx, store, card.BoardID)
		if err != nil {
			return nil, err
		}
		sink.EmitCreateCard(project, board, card.ColumnID, card.ID)

		return &CreateCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clone-card",
		Method:      http.MethodPost,
		Path:        "/cards/{id}/clone",
		Summary:     "Clone a card into a column",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CloneCardInput) (*CloneCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		card, err := engine.CloneCard(ctx, input.ID, input.Body.ColumnID, userID)
		if err != nil {
			return nil, domainError(err, "failed to clone card")
		}

		project, board, err := topicNamesFor(ctx, store, card.BoardID)
		if err != nil {
			return nil, err
		}
		sink.EmitCreateCard(project, board, card.ColumnID, card.ID)

		return &CloneCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-card",
		Method:      http.MethodGet,
		Path:        "/cards/{id}",
		Summary:     "Get a card by ID",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *GetCardInput) (*GetCardOutput, error) {
		card, err := store.Cards().GetByID(ctx, input.ID)
		if err != nil {
			return nil, domainError(err, "card not found")
		}
		return &GetCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-card-by-sequence",
		Method:      http.MethodGet,
		Path:        "/cards/by-sequence/{boardShortName}/{sequence}",
		Summary:     "Get a card by its human-facing identifier",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *GetCardBySequenceInput) (*GetCardBySequenceOutput, error) {
		card, err := store.Cards().GetBySequence(ctx, input.BoardShortName, input.Sequence)
		if err != nil {
			return nil, domainError(err, "card not found")
		}
		return &GetCardBySequenceOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-card",
		Method:      http.MethodPut,
		Path:        "/cards/{id}/name",
		Summary:     "Rename a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *RenameCardInput) (*RenameCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		card, err := engine.RenameCard(ctx, input.ID, input.Body.Name, userID)
		if err != nil {
			return nil, domainError(err, "failed to rename card")
		}

		project, board, err := topicNamesFor(ctx, store, card.BoardID)
		if err != nil {
			return nil, err
		}
		sink.EmitUpdateCard(project, board, card.ColumnID, card.ID)

		return &RenameCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-card-activity",
		Method:      http.MethodGet,
		Path:        "/cards/{id}/activity",
		Summary:     "Get a card's history",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CardActivityInput) (*CardActivityOutput, error) {
		if _, err := store.Cards().GetByID(ctx, input.ID); err != nil {
			return nil, domainError(err, "card not found")
		}

		entries, err := store.Activity().ListByCard(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list activity", err)
		}
		return &CardActivityOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-card",
		Method:      http.MethodPost,
		Path:        "/cards/{id}/move",
		Summary:     "Move a card to a column and reorder it",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *MoveCardInput) (*MoveCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		res, err := engine.MoveCardToColumnAndReorder(ctx, input.ID, input.Body.PrevColumnID, input.Body.NewColumnID, input.Body.NewOrder, userID)
		if err != nil {
			return nil, domainError(err, "failed to move card")
		}

		project, board, err := topicNamesFor(ctx, store, res.Card.BoardID)
		if err != nil {
			return nil, err
		}

		sink.EmitUpdateCardPosition(board, res.PrevColumn.ID)
		sink.EmitUpdateCardPosition(board, res.NewColumn.ID)
		if res.PrevColumn.Location != domain.LocationBoard {
			sink.EmitMoveCardFromOutsideOfBoard(board, res.PrevColumn.Location)
		}
		sink.EmitCardHasMoved(project, board, []uuid.UUID{res.Card.ID})

		return &MoveCardOutput{Body: res.Card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-move-cards",
		Method:      http.MethodPost,
		Path:        "/columns/{columnID}/cards/bulk-move",
		Summary:     "Move a batch of cards to a board location",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *BulkMoveCardsInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		res, err := engine.MoveCardsToLocation(ctx, input.Body.CardIDs, input.ColumnID, domain.ColumnLocation(input.Body.Location), userID)
		if err != nil {
			return nil, domainError(err, "failed to move cards")
		}

		project, board, err := topicNamesFor(ctx, store, res.PrevColumn.BoardID)
		if err != nil {
			return nil, err
		}

		sink.EmitUpdateCardPosition(board, res.PrevColumn.ID)
		if res.PrevColumn.Location == domain.LocationBoard {
			sink.EmitMoveCardOutsideOfBoard(board, res.Destination.Location)
		} else {
			// Off-board to off-board: both sides read as outside-the-board
			// traffic, one event per location involved.
			sink.EmitMoveCardFromOutsideOfBoard(board, res.PrevColumn.Location)
			sink.EmitMoveCardFromOutsideOfBoard(board, res.Destination.Location)
		}
		sink.EmitCardHasMoved(project, board, res.CardIDs)

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-card-order",
		Method:      http.MethodPut,
		Path:        "/columns/{columnID}/order",
		Summary:     "Reorder the cards of a column",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *UpdateCardOrderInput) (*struct{}, error) {
		col, err := getColumn(ctx, store, input.ColumnID)
		if err != nil {
			return nil, err
		}

		if err := engine.UpdateCardOrder(ctx, col.ID, input.Body.CardIDs); err != nil {
			return nil, domainError(err, "failed to reorder cards")
		}

		b, err := store.Boards().GetByID(ctx, col.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve board", err)
		}
		sink.EmitUpdateCardPosition(b.ShortName, col.ID)

		return nil, nil
	})
}

func getColumn(ctx context.Context, store DataStore, id uuid.UUID) (*domain.BoardColumn, error) {
	col, err := store.Columns().GetByID(ctx, id)
	if err != nil {
		return nil, domainError(err, "column not found")
	}
	return col, nil
}

// topicNamesFor resolves the project and board short names used as event
// topics for a board.
func topicNamesFor(ctx context.Context, store DataStore, boardID uuid.UUID) (project, board string, err error) {
	b, err := store.Boards().GetByID(ctx, boardID)
	if err != nil {
		return "", "", huma.Error500InternalServerError("failed to resolve board", err)
	}
	p, err := store.Projects().GetByID(ctx, b.ProjectID)
	if err != nil {
		return "", "", huma.Error500InternalServerError("failed to resolve project", err)
	}
	return p.ShortName, b.ShortName, nil
}
