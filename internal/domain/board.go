package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Name      string
	ShortName string // unique across all projects, immutable
	Archived  bool
	CreatedAt time.Time
}

// NewBoard creates a Board with validated required fields.
func NewBoard(projectID uuid.UUID, name, shortName string) (*Board, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("board: project ID is required: %w", ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("board: name is required: %w", ErrValidation)
	}
	if !ValidShortName(shortName) {
		return nil, fmt.Errorf("board: short name %q must match %s: %w", shortName, shortNamePattern, ErrValidation)
	}
	return &Board{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		ShortName: shortName,
		CreatedAt: time.Now(),
	}, nil
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	GetByShortName(ctx context.Context, shortName string) (*Board, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Board, error)
	Update(ctx context.Context, b *Board) error
	ShortNameExists(ctx context.Context, shortName string) (bool, error)

	// NextCardSequence returns the next value of the board-scoped card
	// counter. The counter is durable, monotonic and gapless within a
	// committed transaction.
	NextCardSequence(ctx context.Context, boardID uuid.UUID) (int, error)

	// ProjectShortNameFor resolves the short name of the project owning
	// the board identified by boardShortName.
	ProjectShortNameFor(ctx context.Context, boardShortName string) (string, error)
}
