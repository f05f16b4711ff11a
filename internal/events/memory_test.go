package events_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavolahq/tavola/internal/events"
)

func recv(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func TestMemoryBrokerSequenceIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := events.NewMemoryBroker()
	defer broker.Close()

	var prev int
	for i := 0; i < 5; i++ {
		id, err := broker.Publish(ctx, "board:DEMO", events.Event{Kind: events.KindCreateCard})
		require.NoError(t, err)

		n, err := strconv.Atoi(id)
		require.NoError(t, err)
		assert.Greater(t, n, prev, "sequence IDs must be strictly increasing")
		prev = n
	}

	// Independent topics keep independent counters.
	id, err := broker.Publish(ctx, "board:OTHER", events.Event{Kind: events.KindCreateCard})
	require.NoError(t, err)
	assert.Equal(t, "1", id)
}

func TestMemoryBrokerLiveDelivery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := events.NewMemoryBroker()
	defer broker.Close()

	ch, cancel, err := broker.Subscribe(ctx, "board:DEMO", "")
	require.NoError(t, err)
	defer cancel()

	_, err = broker.Publish(ctx, "board:DEMO", events.Event{Kind: events.KindCreateCard})
	require.NoError(t, err)
	_, err = broker.Publish(ctx, "board:DEMO", events.Event{Kind: events.KindCardMoved})
	require.NoError(t, err)

	assert.Equal(t, events.KindCreateCard, recv(t, ch).Kind)
	assert.Equal(t, events.KindCardMoved, recv(t, ch).Kind)
}

func TestMemoryBrokerResume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := events.NewMemoryBroker()
	defer broker.Close()

	kinds := []events.Kind{events.KindCreateCard, events.KindUpdateCard, events.KindCardMoved}
	var lastSeen string
	for _, k := range kinds {
		id, err := broker.Publish(ctx, "board:DEMO", events.Event{Kind: k})
		require.NoError(t, err)
		if k == events.KindCreateCard {
			lastSeen = id
		}
	}

	// Resuming after the first event replays the remaining two in order.
	ch, cancel, err := broker.Subscribe(ctx, "board:DEMO", lastSeen)
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, events.KindUpdateCard, recv(t, ch).Kind)
	assert.Equal(t, events.KindCardMoved, recv(t, ch).Kind)

	// And stays live afterwards.
	_, err = broker.Publish(ctx, "board:DEMO", events.Event{Kind: events.KindUpdateBoard})
	require.NoError(t, err)
	assert.Equal(t, events.KindUpdateBoard, recv(t, ch).Kind)
}

func TestMemoryBrokerTopicIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := events.NewMemoryBroker()
	defer broker.Close()

	ch, cancel, err := broker.Subscribe(ctx, "project:DEMO", "")
	require.NoError(t, err)
	defer cancel()

	_, err = broker.Publish(ctx, "board:DEMO", events.Event{Kind: events.KindCreateCard})
	require.NoError(t, err)
	_, err = broker.Publish(ctx, "project:DEMO", events.Event{Kind: events.KindCreateBoard})
	require.NoError(t, err)

	assert.Equal(t, events.KindCreateBoard, recv(t, ch).Kind, "subscriber must only see its own topic")
}

func TestMemoryBrokerCancelAndClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broker := events.NewMemoryBroker()

	ch, cancel, err := broker.Subscribe(ctx, "board:DEMO", "")
	require.NoError(t, err)

	cancel()
	_, ok := <-ch
	assert.False(t, ok, "cancel closes the feed")

	broker.Close()
	_, err = broker.Publish(ctx, "board:DEMO", events.Event{Kind: events.KindCreateCard})
	require.Error(t, err)
}
