package domain

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// shortNamePattern matches human-facing project/board short names
// (the prefix of card identifiers like "DEMO-42").
var shortNamePattern = regexp.MustCompile(`^[A-Z0-9_]{2,8}$`)

// ValidShortName reports whether s is usable as a project or board short name.
func ValidShortName(s string) bool {
	return shortNamePattern.MatchString(s)
}

type Project struct {
	ID        uuid.UUID
	Name      string
	ShortName string // unique, immutable
	Archived  bool
	CreatedAt time.Time
}

// NewProject creates a Project with validated required fields.
func NewProject(name, shortName string) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project: name is required: %w", ErrValidation)
	}
	if !ValidShortName(shortName) {
		return nil, fmt.Errorf("project: short name %q must match %s: %w", shortName, shortNamePattern, ErrValidation)
	}
	return &Project{
		ID:        uuid.New(),
		Name:      name,
		ShortName: shortName,
		CreatedAt: time.Now(),
	}, nil
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	GetByShortName(ctx context.Context, shortName string) (*Project, error)
	Update(ctx context.Context, p *Project) error
	List(ctx context.Context) ([]*Project, error)
	ShortNameExists(ctx context.Context, shortName string) (bool, error)
}
