package placement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tavolahq/tavola/internal/domain"
)

// LocationResolver maps a (board, location) pair to the unique catch-all
// column owning that location. The columns are provisioned at board
// creation, so a miss is a data-consistency fault, not a user error.
type LocationResolver struct {
	columns domain.ColumnRepository
}

func NewLocationResolver(columns domain.ColumnRepository) *LocationResolver {
	return &LocationResolver{columns: columns}
}

func (r *LocationResolver) FindDefaultColumnFor(ctx context.Context, boardID uuid.UUID, location domain.ColumnLocation) (*domain.BoardColumn, error) {
	if !location.Valid() {
		return nil, fmt.Errorf("resolver: unknown location %q: %w", location, domain.ErrValidation)
	}

	col, err := r.columns.FindDefaultFor(ctx, boardID, location)
	if errors.Is(err, domain.ErrNotFound) {
		log.Error().
			Str("board_id", boardID.String()).
			Str("location", string(location)).
			Msg("board has no default column for location; board initialization is broken")
		return nil, fmt.Errorf("resolver: no default %s column for board %s: %w", location, boardID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	return col, nil
}
