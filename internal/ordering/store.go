// Package ordering assigns and maintains the integer position keys that
// define the top-to-bottom order of cards within a column.
//
// Keys are spaced Gap apart so that inserting at either end of a column
// never renumbers existing cards. Reordering slots cards into the gaps
// between their neighbours; only when a gap is exhausted does the store
// fall back to renumbering the whole column.
package ordering

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
)

const (
	// Seed is the key assigned to the first card of an empty column.
	Seed int64 = 1024
	// Gap is the spacing between freshly assigned keys.
	Gap int64 = 1024
)

// ErrInvalidOrder signals that a reorder request referenced a card that does
// not belong to the column, or referenced a card twice. Stale clients hit
// this when a card moved away between their fetch and their request, so the
// error carries domain.ErrValidation for the boundary to map.
var ErrInvalidOrder = fmt.Errorf("ordering: card does not belong to column: %w", domain.ErrValidation)

// Keys is the slice of the card repository the store needs: reading and
// rewriting position keys. Satisfied by domain.CardRepository.
type Keys interface {
	ColumnOrders(ctx context.Context, columnID uuid.UUID) ([]domain.CardOrder, error)
	ApplyOrders(ctx context.Context, columnID uuid.UUID, orders map[uuid.UUID]int64) error
}

// Store computes and persists position keys for one backing Keys source.
// It is cheap to construct; the placement engine builds one per transaction.
type Store struct {
	keys Keys
}

func New(keys Keys) *Store {
	return &Store{keys: keys}
}

// InsertAtTop returns a key that sorts before every existing card in the
// column without renumbering any of them.
func (s *Store) InsertAtTop(ctx context.Context, columnID uuid.UUID) (int64, error) {
	orders, err := s.keys.ColumnOrders(ctx, columnID)
	if err != nil {
		return 0, fmt.Errorf("ordering.InsertAtTop: %w", err)
	}
	if len(orders) == 0 {
		return Seed, nil
	}
	return orders[0].Order - Gap, nil
}

// InsertAtBottom returns a key that sorts after every existing card in the
// column without renumbering any of them.
func (s *Store) InsertAtBottom(ctx context.Context, columnID uuid.UUID) (int64, error) {
	orders, err := s.keys.ColumnOrders(ctx, columnID)
	if err != nil {
		return 0, fmt.Errorf("ordering.InsertAtBottom: %w", err)
	}
	if len(orders) == 0 {
		return Seed, nil
	}
	return orders[len(orders)-1].Order + Gap, nil
}

// Reorder assigns strictly increasing keys consistent with orderedIDs.
//
// When orderedIDs covers the whole column the keys are renumbered from the
// seed, which makes repeated identical requests no-ops. A partial sequence
// re-slots its members into the positions they already occupy: unaffected
// cards keep their keys and the affected ones are distributed inside the
// surrounding gap, falling back to a full renumber when the gap cannot fit
// them.
func (s *Store) Reorder(ctx context.Context, columnID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return nil
	}

	current, err := s.keys.ColumnOrders(ctx, columnID)
	if err != nil {
		return fmt.Errorf("ordering.Reorder: %w", err)
	}

	keyOf := make(map[uuid.UUID]int64, len(current))
	for _, co := range current {
		keyOf[co.CardID] = co.Order
	}

	affected := make(map[uuid.UUID]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := keyOf[id]; !ok {
			return fmt.Errorf("ordering.Reorder: card %s: %w", id, ErrInvalidOrder)
		}
		if affected[id] {
			return fmt.Errorf("ordering.Reorder: card %s listed twice: %w", id, ErrInvalidOrder)
		}
		affected[id] = true
	}

	// Rebuild the column sequence: affected cards take the slots their
	// members currently occupy, in the requested order.
	next := 0
	sequence := make([]uuid.UUID, len(current))
	for i, co := range current {
		if affected[co.CardID] {
			sequence[i] = orderedIDs[next]
			next++
		} else {
			sequence[i] = co.CardID
		}
	}

	var assign map[uuid.UUID]int64
	if len(orderedIDs) == len(current) {
		assign = renumber(sequence, keyOf)
	} else {
		assign = fitIntoGaps(sequence, affected, keyOf)
		if assign == nil {
			// Unreachable through this path: re-slotting affected cards
			// into the positions their members already occupy leaves each
			// interior run with hi-lo >= n+1 whenever keys are distinct
			// integers, so every step is at least 1. Kept for keys that
			// did not come from this store (imported rows).
			assign = renumber(sequence, keyOf)
		}
	}

	if len(assign) == 0 {
		return nil
	}
	if err := s.keys.ApplyOrders(ctx, columnID, assign); err != nil {
		return fmt.Errorf("ordering.Reorder: %w", err)
	}
	return nil
}

// renumber assigns Seed+i*Gap across the whole sequence, skipping cards
// whose key already matches.
func renumber(sequence []uuid.UUID, keyOf map[uuid.UUID]int64) map[uuid.UUID]int64 {
	assign := make(map[uuid.UUID]int64)
	for i, id := range sequence {
		want := Seed + int64(i)*Gap
		if keyOf[id] != want {
			assign[id] = want
		}
	}
	return assign
}

// fitIntoGaps distributes each run of affected cards between the keys of
// its unaffected neighbours. Returns nil when any run does not fit.
func fitIntoGaps(sequence []uuid.UUID, affected map[uuid.UUID]bool, keyOf map[uuid.UUID]int64) map[uuid.UUID]int64 {
	assign := make(map[uuid.UUID]int64)

	for i := 0; i < len(sequence); {
		if !affected[sequence[i]] {
			i++
			continue
		}
		start := i
		for i < len(sequence) && affected[sequence[i]] {
			i++
		}
		run := sequence[start:i]

		var lo, hi *int64
		if start > 0 {
			k := keyOf[sequence[start-1]]
			lo = &k
		}
		if i < len(sequence) {
			k := keyOf[sequence[i]]
			hi = &k
		}

		n := int64(len(run))
		switch {
		case lo == nil && hi == nil:
			// Whole column affected; handled by the full-renumber path.
			for j, id := range run {
				setKey(assign, keyOf, id, Seed+int64(j)*Gap)
			}
		case lo == nil:
			// Run at the top: step down from the first unaffected key.
			for j, id := range run {
				setKey(assign, keyOf, id, *hi-(n-int64(j))*Gap)
			}
		case hi == nil:
			// Run at the bottom: step up from the last unaffected key.
			for j, id := range run {
				setKey(assign, keyOf, id, *lo+int64(j+1)*Gap)
			}
		default:
			step := (*hi - *lo) / (n + 1)
			if step < 1 {
				return nil
			}
			for j, id := range run {
				setKey(assign, keyOf, id, *lo+int64(j+1)*step)
			}
		}
	}
	return assign
}

func setKey(assign, keyOf map[uuid.UUID]int64, id uuid.UUID, key int64) {
	if keyOf[id] != key {
		assign[id] = key
	}
}
