// Package events turns committed placement mutations into typed, ordered,
// at-least-once notifications. Events are derived, never authoritative: an
// observer that misses one can always recover by re-fetching state.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Kind is the closed set of notification types.
type Kind string

const (
	KindCreateCard               Kind = "CREATE_CARD"
	KindUpdateCard               Kind = "UPDATE_CARD"
	KindUpdateCardPosition       Kind = "UPDATE_CARD_POSITION"
	KindCardMoved                Kind = "CARD_MOVED"
	KindMoveCardOutsideBoard     Kind = "MOVE_CARD_OUTSIDE_BOARD"
	KindMoveCardFromOutsideBoard Kind = "MOVE_CARD_FROM_OUTSIDE_BOARD"
	KindCreateProject            Kind = "CREATE_PROJECT"
	KindUpdateProject            Kind = "UPDATE_PROJECT"
	KindCreateBoard              Kind = "CREATE_BOARD"
	KindUpdateBoard              Kind = "UPDATE_BOARD"
)

// Event is one immutable notification. SequenceID is assigned by the broker
// at publish time and is strictly increasing per topic, durable across
// process restarts and never reused.
type Event struct {
	SequenceID string          `json:"sequenceId,omitempty"`
	Project    string          `json:"project,omitempty"`
	Board      string          `json:"board,omitempty"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// BoardTopic returns the delivery topic for a board's observers.
func BoardTopic(boardShortName string) string {
	return "board:" + boardShortName
}

// ProjectTopic returns the delivery topic for a project's observers.
func ProjectTopic(projectShortName string) string {
	return "project:" + projectShortName
}

// Broker is the durable handoff between the emitter and connected
// observers. Events for one topic are delivered to a subscriber in
// non-decreasing SequenceID order, at least once; there is no ordering
// guarantee across topics.
type Broker interface {
	// Publish appends the event to the topic and returns its sequence ID.
	Publish(ctx context.Context, topic string, ev Event) (string, error)

	// Subscribe returns a live feed of the topic starting after
	// lastSequenceID (empty string: new events only). The returned func
	// releases the subscription.
	Subscribe(ctx context.Context, topic, lastSequenceID string) (<-chan Event, func(), error)
}
