// Package memory is an in-process Connector with no network dependency,
// used by tests and local development. It lets a test or operator inject
// Subscribe/Unsubscribe/PublisherDisconnect events directly and records
// every DeleteTopic call for assertions.
package memory

import (
	"context"
	"sync"

	"github.com/cuemby/topicgate/pkg/types"
)

// Connector is a Connector (pkg/broker) backed by in-process channels
// instead of a real broker session.
type Connector struct {
	mu       sync.Mutex
	deletes  []Deletion
	sink     chan<- types.TopicEvent
	ready    chan struct{}
	readyOne sync.Once
}

// Deletion records one DeleteTopic call, for test assertions.
type Deletion struct {
	TopicID string
	Payload string
}

// New creates a memory Connector.
func New() *Connector {
	return &Connector{ready: make(chan struct{})}
}

// Start implements broker.Connector. It just remembers sink and blocks
// until ctx is cancelled; events are injected via Inject, not produced
// internally.
func (c *Connector) Start(ctx context.Context, sink chan<- types.TopicEvent) error {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
	c.readyOne.Do(func() { close(c.ready) })

	<-ctx.Done()
	return ctx.Err()
}

// Inject pushes an event into the manager's sink as if the broker had
// produced it. Blocks until Start has been called.
func (c *Connector) Inject(ctx context.Context, ev types.TopicEvent) {
	<-c.ready
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()

	select {
	case sink <- ev:
	case <-ctx.Done():
	}
}

// DeleteTopic implements broker.Connector by recording the call.
func (c *Connector) DeleteTopic(_ context.Context, topicID, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, Deletion{TopicID: topicID, Payload: payload})
	return nil
}

// Deletions returns a copy of every recorded DeleteTopic call, in order.
func (c *Connector) Deletions() []Deletion {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Deletion, len(c.deletes))
	copy(out, c.deletes)
	return out
}
