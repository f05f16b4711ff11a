package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityKind is the closed set of operations recorded in a card's history.
type ActivityKind string

const (
	ActivityCardCreate ActivityKind = "CARD_CREATE"
	ActivityCardClone  ActivityKind = "CARD_CLONE"
	ActivityCardRename ActivityKind = "CARD_RENAME"
	ActivityCardMove   ActivityKind = "CARD_MOVE"
)

// ActivityEntry is one persisted history record for a card. It is the
// authoritative audit trail, distinct from the live notification events.
type ActivityEntry struct {
	ID           uuid.UUID
	CardID       uuid.UUID
	UserID       uuid.UUID
	Kind         ActivityKind
	PrevColumnID *uuid.UUID
	NewColumnID  *uuid.UUID
	Definition   ColumnDefinition // definition the card assumed, for moves
	Time         time.Time
}

type ActivityRepository interface {
	Insert(ctx context.Context, e *ActivityEntry) error
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*ActivityEntry, error)
}
