package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tavolahq/tavola/internal/domain"
)

type ProjectRepo struct {
	db querier
}

func NewProjectRepo(db querier) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (id, name, short_name, archived, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.ShortName, p.Archived, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Create: %w", err)
	}
	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return r.get(ctx, "projectRepo.GetByID",
		`SELECT id, name, short_name, archived, created_at FROM projects WHERE id = $1`, id)
}

func (r *ProjectRepo) GetByShortName(ctx context.Context, shortName string) (*domain.Project, error) {
	return r.get(ctx, "projectRepo.GetByShortName",
		`SELECT id, name, short_name, archived, created_at FROM projects WHERE short_name = $1`, shortName)
}

func (r *ProjectRepo) get(ctx context.Context, caller, query string, arg any) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&p.ID, &p.Name, &p.ShortName, &p.Archived, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET name = $1, archived = $2 WHERE id = $3`,
		p.Name, p.Archived, p.ID,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projectRepo.Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, short_name, archived, created_at
		 FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.List: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ShortName, &p.Archived, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("projectRepo.List: scan: %w", err)
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projectRepo.List: rows: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepo) ShortNameExists(ctx context.Context, shortName string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE short_name = $1)`, shortName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("projectRepo.ShortNameExists: %w", err)
	}
	return exists, nil
}
