package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tavolahq/tavola/internal/domain"
)

type CreateProjectInput struct {
	Body struct {
		Name      string `json:"name" minLength:"1" maxLength:"200" doc:"Project name"`
		ShortName string `json:"short_name" minLength:"2" maxLength:"8" doc:"Unique project short name, e.g. DEMO"`
	}
}

type CreateProjectOutput struct {
	Body *domain.Project
}

type ListProjectsOutput struct {
	Body []*domain.Project
}

type GetProjectInput struct {
	ShortName string `path:"shortName" doc:"Project short name"`
}

type GetProjectOutput struct {
	Body *domain.Project
}

type UpdateProjectInput struct {
	ShortName string `path:"shortName" doc:"Project short name"`
	Body      struct {
		Name     string `json:"name,omitempty" maxLength:"200" doc:"Project name"`
		Archived *bool  `json:"archived,omitempty" doc:"Archive flag"`
	}
}

type UpdateProjectOutput struct {
	Body *domain.Project
}

type ListProjectBoardsInput struct {
	ShortName string `path:"shortName" doc:"Project short name"`
}

type ListProjectBoardsOutput struct {
	Body []*domain.Board
}

func RegisterProjectRoutes(api huma.API, store DataStore, sink EventSink) {
	huma.Register(api, huma.Operation{
		OperationID: "create-project",
		Method:      http.MethodPost,
		Path:        "/projects",
		Summary:     "Create a new project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *CreateProjectInput) (*CreateProjectOutput, error) {
		p, err := domain.NewProject(input.Body.Name, input.Body.ShortName)
		if err != nil {
			return nil, domainError(err, "invalid project")
		}

		taken, err := store.Projects().ShortNameExists(ctx, p.ShortName)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to check short name", err)
		}
		if taken {
			return nil, huma.Error409Conflict("project short name already in use")
		}

		if err := store.Projects().Create(ctx, p); err != nil {
			return nil, domainError(err, "failed to create project")
		}

		sink.EmitCreateProject(p.ShortName)
		return &CreateProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List all projects",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, _ *struct{}) (*ListProjectsOutput, error) {
		projects, err := store.Projects().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list projects", err)
		}
		return &ListProjectsOutput{Body: projects}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{shortName}",
		Summary:     "Get a project by short name",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *GetProjectInput) (*GetProjectOutput, error) {
		p, err := store.Projects().GetByShortName(ctx, input.ShortName)
		if err != nil {
			return nil, domainError(err, "project not found")
		}
		return &GetProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPut,
		Path:        "/projects/{shortName}",
		Summary:     "Update a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *UpdateProjectInput) (*UpdateProjectOutput, error) {
		p, err := store.Projects().GetByShortName(ctx, input.ShortName)
		if err != nil {
			return nil, domainError(err, "project not found")
		}

		if input.Body.Name != "" {
			p.Name = input.Body.Name
		}
		if input.Body.Archived != nil {
			p.Archived = *input.Body.Archived
		}

		if err := store.Projects().Update(ctx, p); err != nil {
			return nil, domainError(err, "failed to update project")
		}

		sink.EmitUpdateProject(p.ShortName)
		return &UpdateProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-project-boards",
		Method:      http.MethodGet,
		Path:        "/projects/{shortName}/boards",
		Summary:     "List the boards of a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ListProjectBoardsInput) (*ListProjectBoardsOutput, error) {
		p, err := store.Projects().GetByShortName(ctx, input.ShortName)
		if err != nil {
			return nil, domainError(err, "project not found")
		}

		boards, err := store.Boards().ListByProject(ctx, p.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list boards", err)
		}
		return &ListProjectBoardsOutput{Body: boards}, nil
	})
}
