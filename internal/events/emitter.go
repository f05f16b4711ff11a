package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tavolahq/tavola/internal/domain"
)

// Emitter builds one typed event per mutation kind and hands it to the
// dispatcher. Every method is fire-and-forget from the placement engine's
// perspective: the mutation is committed before emission, and a failed
// handoff is logged, never propagated.
type Emitter struct {
	disp *Dispatcher
}

func NewEmitter(disp *Dispatcher) *Emitter {
	return &Emitter{disp: disp}
}

type cardPayload struct {
	ColumnID uuid.UUID `json:"columnId"`
	CardID   uuid.UUID `json:"cardId"`
}

type positionPayload struct {
	ColumnID uuid.UUID `json:"columnId"`
}

type movedPayload struct {
	CardIDs []uuid.UUID `json:"cardIds"`
}

type locationPayload struct {
	Location domain.ColumnLocation `json:"location"`
}

func (e *Emitter) EmitCreateCard(project, board string, columnID, cardID uuid.UUID) {
	e.send(e.event(KindCreateCard, project, board, cardPayload{ColumnID: columnID, CardID: cardID}), BoardTopic(board))
}

func (e *Emitter) EmitUpdateCard(project, board string, columnID, cardID uuid.UUID) {
	e.send(e.event(KindUpdateCard, project, board, cardPayload{ColumnID: columnID, CardID: cardID}), BoardTopic(board))
}

// EmitUpdateCardPosition tells board observers that something in the
// column's order changed, without carrying the full new order.
func (e *Emitter) EmitUpdateCardPosition(board string, columnID uuid.UUID) {
	e.send(e.event(KindUpdateCardPosition, "", board, positionPayload{ColumnID: columnID}), BoardTopic(board))
}

// EmitCardHasMoved notifies both the board's and the project's observers
// with a single batch event covering every moved card.
func (e *Emitter) EmitCardHasMoved(project, board string, cardIDs []uuid.UUID) {
	ev := e.event(KindCardMoved, project, board, movedPayload{CardIDs: cardIDs})
	e.send(ev, ProjectTopic(project), BoardTopic(board))
}

func (e *Emitter) EmitMoveCardOutsideOfBoard(board string, location domain.ColumnLocation) {
	e.send(e.event(KindMoveCardOutsideBoard, "", board, locationPayload{Location: location}), BoardTopic(board))
}

func (e *Emitter) EmitMoveCardFromOutsideOfBoard(board string, location domain.ColumnLocation) {
	e.send(e.event(KindMoveCardFromOutsideBoard, "", board, locationPayload{Location: location}), BoardTopic(board))
}

func (e *Emitter) EmitCreateProject(project string) {
	e.send(e.event(KindCreateProject, project, "", nil), ProjectTopic(project))
}

func (e *Emitter) EmitUpdateProject(project string) {
	e.send(e.event(KindUpdateProject, project, "", nil), ProjectTopic(project))
}

func (e *Emitter) EmitCreateBoard(project, board string) {
	e.send(e.event(KindCreateBoard, project, board, nil), ProjectTopic(project))
}

func (e *Emitter) EmitUpdateBoard(project, board string) {
	ev := e.event(KindUpdateBoard, project, board, nil)
	e.send(ev, ProjectTopic(project), BoardTopic(board))
}

func (e *Emitter) event(kind Kind, project, board string, payload any) Event {
	ev := Event{
		Kind:      kind,
		Project:   project,
		Board:     board,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("kind", string(kind)).Msg("event payload marshal failed")
		} else {
			ev.Payload = raw
		}
	}
	return ev
}

func (e *Emitter) send(ev Event, topics ...string) {
	for _, topic := range topics {
		if err := e.disp.Enqueue(topic, ev); err != nil {
			log.Warn().
				Err(err).
				Str("topic", topic).
				Str("kind", string(ev.Kind)).
				Msg("event dropped; observers must re-fetch")
		}
	}
}
