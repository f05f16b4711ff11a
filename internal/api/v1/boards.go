package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
	"github.com/tavolahq/tavola/internal/placement"
)

// PageSize is the number of cards per page in location listings. The store
// is asked for one extra row so the response can report whether more exist.
const PageSize = 10

type ColumnSpecBody struct {
	Name       string `json:"name" minLength:"1" maxLength:"200" doc:"Column name"`
	Definition string `json:"definition" enum:"OPEN,CLOSED,BACKLOG,DEFERRED" doc:"Workflow status the column confers"`
}

type CreateBoardInput struct {
	ProjectShortName string `path:"shortName" doc:"Project short name"`
	Body             struct {
		Name      string           `json:"name" minLength:"1" maxLength:"200" doc:"Board name"`
		ShortName string           `json:"short_name" minLength:"2" maxLength:"8" doc:"Unique board short name, e.g. DEMO"`
		Columns   []ColumnSpecBody `json:"columns,omitempty" doc:"Workflow columns; a default set is created when omitted"`
	}
}

type CreateBoardOutput struct {
	Body *domain.Board
}

type GetBoardInput struct {
	ShortName string `path:"shortName" doc:"Board short name"`
}

type BoardWithColumns struct {
	Board   *domain.Board
	Columns []*domain.BoardColumn
}

type GetBoardOutput struct {
	Body *BoardWithColumns
}

type UpdateBoardInput struct {
	ShortName string `path:"shortName" doc:"Board short name"`
	Body      struct {
		Name     string `json:"name,omitempty" maxLength:"200" doc:"Board name"`
		Archived *bool  `json:"archived,omitempty" doc:"Archive flag"`
	}
}

type UpdateBoardOutput struct {
	Body *domain.Board
}

type ListColumnCardsInput struct {
	ShortName string    `path:"shortName" doc:"Board short name"`
	ColumnID  uuid.UUID `path:"columnID" doc:"Column ID"`
}

type ListColumnCardsOutput struct {
	Body []*domain.Card
}

type ListLocationCardsInput struct {
	ShortName string `path:"shortName" doc:"Board short name"`
	Location  string `path:"location" enum:"BACKLOG,DEFERRED,ARCHIVE,TRASH" doc:"Board location"`
	Page      int    `query:"page" minimum:"0" doc:"Zero-based page number"`
}

type LocationCardsPage struct {
	Cards   []*domain.Card
	HasMore bool
}

type ListLocationCardsOutput struct {
	Body *LocationCardsPage
}

func RegisterBoardRoutes(api huma.API, store DataStore, engine PlacementEngine, sink EventSink) {
	huma.Register(api, huma.Operation{
		OperationID: "create-board",
		Method:      http.MethodPost,
		Path:        "/projects/{shortName}/boards",
		Summary:     "Create a board with its columns",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *CreateBoardInput) (*CreateBoardOutput, error) {
		p, err := store.Projects().GetByShortName(ctx, input.ProjectShortName)
		if err != nil {
			return nil, domainError(err, "project not found")
		}

		specs := make([]placement.ColumnSpec, 0, len(input.Body.Columns))
		for _, c := range input.Body.Columns {
			specs = append(specs, placement.ColumnSpec{
				Name:       c.Name,
				Definition: domain.ColumnDefinition(c.Definition),
			})
		}

		b, err := engine.CreateBoard(ctx, p.ID, input.Body.Name, input.Body.ShortName, specs)
		if err != nil {
			return nil, domainError(err, "failed to create board")
		}

		sink.EmitCreateBoard(p.ShortName, b.ShortName)
		return &CreateBoardOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{shortName}",
		Summary:     "Get a board and its columns",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		b, err := store.Boards().GetByShortName(ctx, input.ShortName)
		if err != nil {
			return nil, domainError(err, "board not found")
		}

		cols, err := store.Columns().ListByBoard(ctx, b.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list columns", err)
		}

		return &GetBoardOutput{Body: &BoardWithColumns{Board: b, Columns: cols}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-board",
		Method:      http.MethodPut,
		Path:        "/boards/{shortName}",
		Summary:     "Update a board",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *UpdateBoardInput) (*UpdateBoardOutput, error) {
		b, err := store.Boards().GetByShortName(ctx, input.ShortName)
		if err != nil {
			return nil, domainError(err, "board not found")
		}

		if input.Body.Name != "" {
			b.Name = input.Body.Name
		}
		if input.Body.Archived != nil {
			b.Archived = *input.Body.Archived
		}

		if err := store.Boards().Update(ctx, b); err != nil {
			return nil, domainError(err, "failed to update board")
		}

		project, err := store.Boards().ProjectShortNameFor(ctx, b.ShortName)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve project", err)
		}

		sink.EmitUpdateBoard(project, b.ShortName)
		return &UpdateBoardOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-column-cards",
		Method:      http.MethodGet,
		Path:        "/boards/{shortName}/columns/{columnID}/cards",
		Summary:     "List a column's cards in position order",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *ListColumnCardsInput) (*ListColumnCardsOutput, error) {
		col, err := getColumn(ctx, store, input.ColumnID)
		if err != nil {
			return nil, err
		}

		cards, err := store.Cards().ListByColumn(ctx, col.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list cards", err)
		}
		return &ListColumnCardsOutput{Body: cards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-location-cards",
		Method:      http.MethodGet,
		Path:        "/boards/{shortName}/location/{location}/cards",
		Summary:     "List a board location's cards, paginated by recency",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *ListLocationCardsInput) (*ListLocationCardsOutput, error) {
		b, err := store.Boards().GetByShortName(ctx, input.ShortName)
		if err != nil {
			return nil, domainError(err, "board not found")
		}

		cards, err := store.Cards().ListByBoardLocationPaginated(ctx, b.ID, domain.ColumnLocation(input.Location), input.Page, PageSize+1)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list cards", err)
		}

		page := &LocationCardsPage{Cards: cards}
		if len(cards) > PageSize {
			page.Cards = cards[:PageSize]
			page.HasMore = true
		}
		return &ListLocationCardsOutput{Body: page}, nil
	})
}
