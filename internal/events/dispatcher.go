package events

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrDispatcherClosed signals that Enqueue was called after Shutdown began.
var ErrDispatcherClosed = errors.New("events: dispatcher is shut down")

// DispatcherConfig tunes the publication queue. Zero values pick defaults.
type DispatcherConfig struct {
	QueueSize      int
	PublishTimeout time.Duration
	RetryInitial   time.Duration
	RetryMax       time.Duration
	MaxAttempts    int
}

func (c *DispatcherConfig) withDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = 250 * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
}

type queued struct {
	topic string
	ev    Event
}

// Dispatcher decouples broker publication from the mutating request: the
// data change is already committed when an event is enqueued, so a publish
// failure is retried with backoff and never rolls anything back. A single
// consumer goroutine drains the queue, which preserves per-topic program
// order, and publishes with a background context so request cancellation
// cannot cancel emission.
type Dispatcher struct {
	cfg    DispatcherConfig
	broker Broker
	queue  chan queued

	mu     sync.RWMutex // excludes Enqueue sends from the queue close
	closed bool

	done chan struct{}
}

func NewDispatcher(broker Broker, cfg DispatcherConfig) *Dispatcher {
	cfg.withDefaults()
	return &Dispatcher{
		cfg:    cfg,
		broker: broker,
		queue:  make(chan queued, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (d *Dispatcher) Start() {
	go d.run()
}

// Enqueue hands an event over for publication to topic. Returns
// ErrDispatcherClosed during shutdown; the caller's mutation is already
// committed either way, so observers recover via full re-fetch.
func (d *Dispatcher) Enqueue(topic string, ev Event) error {
	// The read lock holds the queue open for the duration of the send:
	// Shutdown closes it only under the write lock. A send blocked on a
	// full queue cannot deadlock Shutdown because the consumer keeps
	// draining until the channel closes.
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	d.queue <- queued{topic: topic, ev: ev}
	return nil
}

// Shutdown stops accepting events, drains in-flight publications and waits
// for the consumer to finish or ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for q := range d.queue {
		d.publishWithRetry(q)
	}
}

// publishWithRetry blocks the queue while retrying: skipping ahead would
// reorder events on the same topic.
func (d *Dispatcher) publishWithRetry(q queued) {
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.PublishTimeout)
		_, err := d.broker.Publish(ctx, q.topic, q.ev)
		cancel()
		if err == nil {
			return
		}

		if attempt >= d.cfg.MaxAttempts {
			log.Error().
				Err(err).
				Str("topic", q.topic).
				Str("kind", string(q.ev.Kind)).
				Int("attempts", attempt).
				Msg("event publication failed permanently; observers must re-fetch")
			return
		}

		log.Warn().
			Err(err).
			Str("topic", q.topic).
			Str("kind", string(q.ev.Kind)).
			Int("attempt", attempt).
			Msg("event publication failed, retrying")
		time.Sleep(backoff(attempt, d.cfg.RetryInitial, d.cfg.RetryMax))
	}
}

// backoff returns the jittered exponential delay before the next attempt.
func backoff(attempt int, initial, max time.Duration) time.Duration {
	delay := float64(initial) * math.Pow(2, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}
	jitter := 0.2 * delay
	return time.Duration(delay + (rand.Float64()-0.5)*2*jitter)
}
