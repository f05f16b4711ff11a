package events

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryBroker is an in-process Broker keeping a per-topic append-only log.
// It backs tests and single-node development; production deployments use
// the Redis Streams broker. Sequence IDs are per-topic counters, so resumed
// subscriptions replay everything after the last seen ID.
type MemoryBroker struct {
	mu     sync.Mutex
	logs   map[string][]Event
	subs   map[string]map[int]chan Event
	nextID int
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		logs: make(map[string][]Event),
		subs: make(map[string]map[int]chan Event),
	}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, ev Event) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", fmt.Errorf("events.MemoryBroker.Publish: broker is closed")
	}

	ev.SequenceID = strconv.Itoa(len(b.logs[topic]) + 1)
	b.logs[topic] = append(b.logs[topic], ev)

	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
			// Full buffer: the subscriber is too slow and must resume
			// from its last seen sequence ID.
		}
	}
	return ev.SequenceID, nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, topic, lastSequenceID string) (<-chan Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, fmt.Errorf("events.MemoryBroker.Subscribe: broker is closed")
	}

	// Empty lastSequenceID means new events only; "0" replays everything.
	after := len(b.logs[topic])
	if lastSequenceID != "" {
		n, err := strconv.Atoi(lastSequenceID)
		if err != nil {
			return nil, nil, fmt.Errorf("events.MemoryBroker.Subscribe: bad sequence ID %q: %w", lastSequenceID, err)
		}
		after = n
	}

	backlog := b.logs[topic]
	if after < len(backlog) {
		backlog = backlog[after:]
	} else {
		backlog = nil
	}

	ch := make(chan Event, len(backlog)+256)
	for _, ev := range backlog {
		ch <- ev
	}

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[topic][id]; ok {
			delete(b.subs[topic], id)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Close releases every subscription; further publishes fail.
func (b *MemoryBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(b.subs, topic)
	}
}
