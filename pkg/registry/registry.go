// Package registry holds the authoritative in-memory map from topic id to
// Topic metadata. A single coarse lock guards it: at the scale this service
// operates at, sharding would add complexity without a measurable benefit.
package registry

import (
	"fmt"
	"sync"

	"github.com/cuemby/topicgate/pkg/types"
)

// ErrExists is returned by Insert when the id is already present.
var ErrExists = fmt.Errorf("registry: topic already exists")

// Registry is the concurrency-safe topic_id -> Topic map. All mutation goes
// through Insert, Remove or Mutate; Get and Snapshot only ever hand out
// copies, never references into the map, so callers can never hold the
// lock across an RPC.
type Registry struct {
	mu     sync.Mutex
	topics map[string]types.Topic
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{topics: make(map[string]types.Topic)}
}

// Insert adds a new Topic under id. Fails with ErrExists if id is already
// present — callers that see this on a UUID v4 collision are expected to
// retry with a fresh id.
func (r *Registry) Insert(id string, initial types.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[id]; ok {
		return ErrExists
	}
	initial.ID = id
	r.topics[id] = initial
	return nil
}

// Get returns a copy of the Topic stored under id, and whether it exists.
func (r *Registry) Get(id string) (types.Topic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[id]
	return t, ok
}

// Remove evicts id and returns the removed Topic, if any.
func (r *Registry) Remove(id string) (types.Topic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[id]
	if ok {
		delete(r.topics, id)
	}
	return t, ok
}

// Mutate takes the lock for the duration of fn, which receives the current
// Topic (zero value + ok=false if missing) and returns the value to store
// back. Returning ok=false deletes the entry instead of storing it. fn must
// not block or perform I/O: the lock is held for its entire duration.
func (r *Registry) Mutate(id string, fn func(t types.Topic, exists bool) (types.Topic, bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.topics[id]
	updated, keep := fn(current, exists)
	if keep {
		updated.ID = id
		r.topics[id] = updated
	} else if exists {
		delete(r.topics, id)
	}
}

// Snapshot returns a copy of every entry, for the cleanup sweeper to walk
// without holding the registry lock while it enqueues events.
func (r *Registry) Snapshot() []types.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Topic, 0, len(r.topics))
	for _, t := range r.topics {
		out = append(out, t)
	}
	return out
}

// Len returns the current number of tracked topics. Exposed for metrics and
// tests, not part of the component contract in §4.3.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics)
}
