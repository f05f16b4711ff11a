package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tavolahq/tavola/internal/domain"
)

type BoardRepo struct {
	db querier
}

func NewBoardRepo(db querier) *BoardRepo {
	return &BoardRepo{db: db}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.Board) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO boards (id, project_id, name, short_name, archived, card_sequence, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6)`,
		b.ID, b.ProjectID, b.Name, b.ShortName, b.Archived, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", err)
	}
	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return r.get(ctx, "boardRepo.GetByID",
		`SELECT id, project_id, name, short_name, archived, created_at FROM boards WHERE id = $1`, id)
}

func (r *BoardRepo) GetByShortName(ctx context.Context, shortName string) (*domain.Board, error) {
	return r.get(ctx, "boardRepo.GetByShortName",
		`SELECT id, project_id, name, short_name, archived, created_at FROM boards WHERE short_name = $1`, shortName)
}

func (r *BoardRepo) get(ctx context.Context, caller, query string, arg any) (*domain.Board, error) {
	var b domain.Board
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&b.ID, &b.ProjectID, &b.Name, &b.ShortName, &b.Archived, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	return &b, nil
}

func (r *BoardRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, project_id, name, short_name, archived, created_at
		 FROM boards WHERE project_id = $1 ORDER BY name`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	var boards []*domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Name, &b.ShortName, &b.Archived, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("boardRepo.ListByProject: scan: %w", err)
		}
		boards = append(boards, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("boardRepo.ListByProject: rows: %w", err)
	}
	return boards, nil
}

func (r *BoardRepo) Update(ctx context.Context, b *domain.Board) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE boards SET name = $1, archived = $2 WHERE id = $3`,
		b.Name, b.Archived, b.ID,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *BoardRepo) ShortNameExists(ctx context.Context, shortName string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM boards WHERE short_name = $1)`, shortName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("boardRepo.ShortNameExists: %w", err)
	}
	return exists, nil
}

// NextCardSequence advances the board's durable card counter. The row lock
// taken by UPDATE keeps the counter gapless: concurrent callers serialize
// here and each committed transaction owns a distinct value.
func (r *BoardRepo) NextCardSequence(ctx context.Context, boardID uuid.UUID) (int, error) {
	var seq int
	err := r.db.QueryRow(ctx,
		`UPDATE boards SET card_sequence = card_sequence + 1 WHERE id = $1 RETURNING card_sequence`,
		boardID,
	).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("boardRepo.NextCardSequence: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("boardRepo.NextCardSequence: %w", err)
	}
	return seq, nil
}

func (r *BoardRepo) ProjectShortNameFor(ctx context.Context, boardShortName string) (string, error) {
	var shortName string
	err := r.db.QueryRow(ctx,
		`SELECT p.short_name FROM projects p
		 JOIN boards b ON b.project_id = p.id
		 WHERE b.short_name = $1`,
		boardShortName,
	).Scan(&shortName)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("boardRepo.ProjectShortNameFor: %w", domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("boardRepo.ProjectShortNameFor: %w", err)
	}
	return shortName, nil
}
