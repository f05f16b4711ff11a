// Package placement orchestrates every mutation of card/column state:
// create, clone, move, bulk location transitions and reorders. It is the
// sole writer of card order and column membership.
package placement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
	"github.com/tavolahq/tavola/internal/ordering"
)

// ColumnSpec describes one user-visible workflow column at board creation.
type ColumnSpec struct {
	Name       string
	Definition domain.ColumnDefinition
}

// MoveResult is returned by MoveCardToColumnAndReorder. The activity entry
// is the persisted history record; the columns let the caller emit the
// right notifications.
type MoveResult struct {
	Card       *domain.Card
	PrevColumn *domain.BoardColumn
	NewColumn  *domain.BoardColumn
	Entry      *domain.ActivityEntry
}

// BulkMoveResult is returned by MoveCardsToLocation.
type BulkMoveResult struct {
	CardIDs     []uuid.UUID
	PrevColumn  *domain.BoardColumn
	Destination *domain.BoardColumn
}

// Engine serializes placement mutations per column and applies each one in
// a single transaction. A transaction that loses a race (domain.ErrConflict)
// is retried once against fresh state before the conflict is surfaced.
type Engine struct {
	store domain.Store
	locks *columnLocks
}

func NewEngine(store domain.Store) *Engine {
	return &Engine{
		store: store,
		locks: newColumnLocks(),
	}
}

// inColumnTx runs fn in a transaction while holding the locks of the given
// columns. fn must be safe to run twice: it is retried once on conflict.
func (e *Engine) inColumnTx(ctx context.Context, columnIDs []uuid.UUID, fn func(tx domain.Store) error) error {
	unlock := e.locks.Lock(columnIDs...)
	defer unlock()

	err := e.store.InTx(ctx, fn)
	if errors.Is(err, domain.ErrConflict) {
		err = e.store.InTx(ctx, fn)
	}
	return err
}

// CreateCard inserts a new card at the bottom of the column and assigns the
// board's next sequence number. The caller is responsible for emitting the
// card-created notification.
func (e *Engine) CreateCard(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error) {
	return e.createCard(ctx, name, columnID, userID, false)
}

// CreateCardFromTop is CreateCard inserting at the top of the column.
func (e *Engine) CreateCardFromTop(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error) {
	return e.createCard(ctx, name, columnID, userID, true)
}

func (e *Engine) createCard(ctx context.Context, name string, columnID, userID uuid.UUID, atTop bool) (*domain.Card, error) {
	var card *domain.Card
	err := e.inColumnTx(ctx, []uuid.UUID{columnID}, func(tx domain.Store) error {
		col, err := tx.Columns().GetByID(ctx, columnID)
		if err != nil {
			return err
		}

		c, err := domain.NewCard(name, columnID, col.BoardID, userID)
		if err != nil {
			return err
		}

		ord := ordering.New(tx.Cards())
		if atTop {
			c.Order, err = ord.InsertAtTop(ctx, columnID)
		} else {
			c.Order, err = ord.InsertAtBottom(ctx, columnID)
		}
		if err != nil {
			return err
		}

		c.Sequence, err = tx.Boards().NextCardSequence(ctx, col.BoardID)
		if err != nil {
			return err
		}

		if err := tx.Cards().Create(ctx, c); err != nil {
			return err
		}
		if err := tx.Activity().Insert(ctx, &domain.ActivityEntry{
			ID:          uuid.New(),
			CardID:      c.ID,
			UserID:      userID,
			Kind:        domain.ActivityCardCreate,
			NewColumnID: &columnID,
			Definition:  col.Definition,
			Time:        c.CreatedAt,
		}); err != nil {
			return err
		}

		card = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("placement.CreateCard: %w", err)
	}
	return card, nil
}

// CloneCard duplicates the source card's content (not its history) into a
// new card at the bottom of columnID.
func (e *Engine) CloneCard(ctx context.Context, cardID, columnID, userID uuid.UUID) (*domain.Card, error) {
	var card *domain.Card
	err := e.inColumnTx(ctx, []uuid.UUID{columnID}, func(tx domain.Store) error {
		src, err := tx.Cards().GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		col, err := tx.Columns().GetByID(ctx, columnID)
		if err != nil {
			return err
		}

		c, err := domain.NewCard(src.Name, columnID, col.BoardID, userID)
		if err != nil {
			return err
		}

		ord := ordering.New(tx.Cards())
		c.Order, err = ord.InsertAtBottom(ctx, columnID)
		if err != nil {
			return err
		}
		c.Sequence, err = tx.Boards().NextCardSequence(ctx, col.BoardID)
		if err != nil {
			return err
		}

		if err := tx.Cards().Create(ctx, c); err != nil {
			return err
		}
		if err := tx.Activity().Insert(ctx, &domain.ActivityEntry{
			ID:          uuid.New(),
			CardID:      c.ID,
			UserID:      userID,
			Kind:        domain.ActivityCardClone,
			NewColumnID: &columnID,
			Definition:  col.Definition,
			Time:        c.CreatedAt,
		}); err != nil {
			return err
		}

		card = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("placement.CloneCard: %w", err)
	}
	return card, nil
}

// MoveCardToColumnAndReorder atomically reassigns a card's column and
// applies newOrder (the full desired order of the destination, including
// the moved card). The card must currently live in prevColumnID and both
// columns must belong to the same board. Moving a card into the column it
// already occupies with an unchanged order is a valid no-op.
func (e *Engine) MoveCardToColumnAndReorder(ctx context.Context, cardID, prevColumnID, newColumnID uuid.UUID, newOrder []uuid.UUID, userID uuid.UUID) (*MoveResult, error) {
	found := false
	for _, id := range newOrder {
		if id == cardID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("placement.MoveCardToColumnAndReorder: destination order must include the moved card: %w", domain.ErrValidation)
	}

	var res *MoveResult
	err := e.inColumnTx(ctx, []uuid.UUID{prevColumnID, newColumnID}, func(tx domain.Store) error {
		card, err := tx.Cards().GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.ColumnID != prevColumnID {
			return fmt.Errorf("card %s is not inside column %s: %w", cardID, prevColumnID, domain.ErrPrecondition)
		}

		prevCol, err := tx.Columns().GetByID(ctx, prevColumnID)
		if err != nil {
			return err
		}
		newCol, err := tx.Columns().GetByID(ctx, newColumnID)
		if err != nil {
			return err
		}
		if prevCol.BoardID != newCol.BoardID {
			return fmt.Errorf("can only move inside the same board: %w", domain.ErrPrecondition)
		}

		ord := ordering.New(tx.Cards())
		if card.ColumnID != newColumnID {
			key, err := ord.InsertAtBottom(ctx, newColumnID)
			if err != nil {
				return err
			}
			if err := tx.Cards().MoveToColumn(ctx, cardID, newColumnID, key); err != nil {
				return err
			}
		}
		if err := ord.Reorder(ctx, newColumnID, newOrder); err != nil {
			return err
		}

		entry := &domain.ActivityEntry{
			ID:           uuid.New(),
			CardID:       cardID,
			UserID:       userID,
			Kind:         domain.ActivityCardMove,
			PrevColumnID: &prevColumnID,
			NewColumnID:  &newColumnID,
			Definition:   newCol.Definition,
			Time:         card.UpdatedAt,
		}
		if err := tx.Activity().Insert(ctx, entry); err != nil {
			return err
		}

		card.ColumnID = newColumnID
		res = &MoveResult{Card: card, PrevColumn: prevCol, NewColumn: newCol, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("placement.MoveCardToColumnAndReorder: %w", err)
	}
	return res, nil
}

// MoveCardsToLocation moves a batch of cards from prevColumnID to the
// board's catch-all column for location, appending them at the bottom in
// the given order. The whole batch is rejected if any card is not inside
// prevColumnID; there is no partial application. Each card assumes the
// definition mapped from the target location.
func (e *Engine) MoveCardsToLocation(ctx context.Context, cardIDs []uuid.UUID, prevColumnID uuid.UUID, location domain.ColumnLocation, userID uuid.UUID) (*BulkMoveResult, error) {
	if len(cardIDs) == 0 {
		return nil, fmt.Errorf("placement.MoveCardsToLocation: empty card batch: %w", domain.ErrValidation)
	}
	if location == domain.LocationBoard || !location.Valid() {
		return nil, fmt.Errorf("placement.MoveCardsToLocation: target location must be one of %v: %w", domain.SideLocations(), domain.ErrValidation)
	}

	// Resolve the destination before locking so both column locks can be
	// taken together. Catch-all columns never change boards.
	prevCol, err := e.store.Columns().GetByID(ctx, prevColumnID)
	if err != nil {
		return nil, fmt.Errorf("placement.MoveCardsToLocation: %w", err)
	}
	resolver := NewLocationResolver(e.store.Columns())
	dest, err := resolver.FindDefaultColumnFor(ctx, prevCol.BoardID, location)
	if err != nil {
		return nil, fmt.Errorf("placement.MoveCardsToLocation: %w", err)
	}
	if prevCol.Location == dest.Location {
		return nil, fmt.Errorf("placement.MoveCardsToLocation: cards are already in %s: %w", location, domain.ErrPrecondition)
	}

	mapped := location.MappedDefinition()
	err = e.inColumnTx(ctx, []uuid.UUID{prevColumnID, dest.ID}, func(tx domain.Store) error {
		for _, id := range cardIDs {
			card, err := tx.Cards().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if card.ColumnID != prevColumnID {
				return fmt.Errorf("card %s is not inside column %s: %w", id, prevColumnID, domain.ErrPrecondition)
			}
		}

		ord := ordering.New(tx.Cards())
		base, err := ord.InsertAtBottom(ctx, dest.ID)
		if err != nil {
			return err
		}
		for i, id := range cardIDs {
			if err := tx.Cards().MoveToColumn(ctx, id, dest.ID, base+int64(i)*ordering.Gap); err != nil {
				return err
			}
			if err := tx.Activity().Insert(ctx, &domain.ActivityEntry{
				ID:           uuid.New(),
				CardID:       id,
				UserID:       userID,
				Kind:         domain.ActivityCardMove,
				PrevColumnID: &prevColumnID,
				NewColumnID:  &dest.ID,
				Definition:   mapped,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("placement.MoveCardsToLocation: %w", err)
	}

	return &BulkMoveResult{CardIDs: cardIDs, PrevColumn: prevCol, Destination: dest}, nil
}

// UpdateCardOrder reorders cards within a single column, no column change.
func (e *Engine) UpdateCardOrder(ctx context.Context, columnID uuid.UUID, cardIDs []uuid.UUID) error {
	if len(cardIDs) == 0 {
		return fmt.Errorf("placement.UpdateCardOrder: empty card batch: %w", domain.ErrValidation)
	}
	err := e.inColumnTx(ctx, []uuid.UUID{columnID}, func(tx domain.Store) error {
		return ordering.New(tx.Cards()).Reorder(ctx, columnID, cardIDs)
	})
	if err != nil {
		return fmt.Errorf("placement.UpdateCardOrder: %w", err)
	}
	return nil
}

// RenameCard updates a card's name and records the rename in its history.
func (e *Engine) RenameCard(ctx context.Context, cardID uuid.UUID, name string, userID uuid.UUID) (*domain.Card, error) {
	if name == "" {
		return nil, fmt.Errorf("placement.RenameCard: name is required: %w", domain.ErrValidation)
	}
	var card *domain.Card
	err := e.store.InTx(ctx, func(tx domain.Store) error {
		c, err := tx.Cards().GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if err := tx.Cards().Rename(ctx, cardID, name); err != nil {
			return err
		}
		if err := tx.Activity().Insert(ctx, &domain.ActivityEntry{
			ID:     uuid.New(),
			CardID: cardID,
			UserID: userID,
			Kind:   domain.ActivityCardRename,
		}); err != nil {
			return err
		}
		c.Name = name
		card = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("placement.RenameCard: %w", err)
	}
	return card, nil
}

// CreateBoard creates a board together with its workflow columns and the
// catch-all column for every off-board location. This is what establishes
// the resolver invariant that each board owns exactly one column per
// non-BOARD location.
func (e *Engine) CreateBoard(ctx context.Context, projectID uuid.UUID, name, shortName string, columns []ColumnSpec) (*domain.Board, error) {
	if len(columns) == 0 {
		columns = []ColumnSpec{
			{Name: "To Do", Definition: domain.DefinitionOpen},
			{Name: "In Progress", Definition: domain.DefinitionOpen},
			{Name: "Done", Definition: domain.DefinitionClosed},
		}
	}

	var board *domain.Board
	err := e.store.InTx(ctx, func(tx domain.Store) error {
		b, err := domain.NewBoard(projectID, name, shortName)
		if err != nil {
			return err
		}
		taken, err := tx.Boards().ShortNameExists(ctx, shortName)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("board short name %s is taken: %w", shortName, domain.ErrConflict)
		}
		if err := tx.Boards().Create(ctx, b); err != nil {
			return err
		}

		for i, spec := range columns {
			col, err := domain.NewBoardColumn(b.ID, spec.Name, domain.LocationBoard, i, spec.Definition)
			if err != nil {
				return err
			}
			if err := tx.Columns().Create(ctx, col); err != nil {
				return err
			}
		}
		for _, loc := range domain.SideLocations() {
			col, err := domain.NewBoardColumn(b.ID, string(loc), loc, 0, loc.MappedDefinition())
			if err != nil {
				return err
			}
			if err := tx.Columns().Create(ctx, col); err != nil {
				return err
			}
		}

		board = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("placement.CreateBoard: %w", err)
	}
	return board, nil
}
