// Package redis delivers board and project events over Redis Streams.
// Stream entry IDs double as durable sequence IDs: they are strictly
// increasing per stream and survive restarts, so an observer that stored
// the last ID it saw can resume without losing events.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tavolahq/tavola/internal/events"
)

const (
	streamPrefix = "events:"
	readBlock    = 5 * time.Second
)

type Broker struct {
	client *redis.Client
	maxLen int64
}

// New connects to Redis and verifies the connection. maxLen caps each
// topic stream; entries beyond it are trimmed approximately (XADD MAXLEN ~).
func New(ctx context.Context, addr, password string, db int, maxLen int64) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Broker{client: client, maxLen: maxLen}, nil
}

func (b *Broker) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("redis.Broker.Close: %w", err)
	}
	return nil
}

// Publish appends the event to the topic stream and returns the entry ID
// Redis assigned, which becomes the event's sequence ID.
func (b *Broker) Publish(ctx context.Context, topic string, ev events.Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("redis.Broker.Publish: marshal: %w", err)
	}

	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamPrefix + topic,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{"event": data},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("redis.Broker.Publish: xadd: %w", err)
	}
	return id, nil
}

// Subscribe streams events for the topic. With a non-empty lastSequenceID
// delivery resumes at the first entry after it; otherwise only new events
// are delivered. The returned cancel stops the reader goroutine.
func (b *Broker) Subscribe(ctx context.Context, topic string, lastSequenceID string) (<-chan events.Event, func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	start := lastSequenceID
	if start == "" {
		start = "$"
	}

	out := make(chan events.Event, 64)
	stream := streamPrefix + topic

	go func() {
		defer close(out)
		lastID := start
		for {
			res, err := b.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   64,
				Block:   readBlock,
			}).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if err == redis.Nil {
					continue
				}
				log.Error().Err(err).Str("stream", stream).Msg("stream read failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			for _, s := range res {
				for _, msg := range s.Messages {
					lastID = msg.ID
					raw, ok := msg.Values["event"].(string)
					if !ok {
						log.Warn().Str("stream", stream).Str("id", msg.ID).Msg("stream entry missing event field")
						continue
					}
					var ev events.Event
					if err := json.Unmarshal([]byte(raw), &ev); err != nil {
						log.Warn().Err(err).Str("stream", stream).Str("id", msg.ID).Msg("stream entry undecodable")
						continue
					}
					ev.SequenceID = msg.ID
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, cancel, nil
}
