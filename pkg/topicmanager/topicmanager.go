// Package topicmanager implements the Topic Manager (C4): the state machine
// that owns every dynamic topic's lifecycle. One event loop consumes
// TopicEvents from a single multi-producer channel — the Broker Connector
// and the cleanup sweeper both publish into it — and applies the transition
// table to the shared Registry, dispatching START/STOP/DELETE actions to
// the Publisher Callback Client or the Broker Connector as each transition
// requires.
package topicmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/topicgate/pkg/broker"
	"github.com/cuemby/topicgate/pkg/callback"
	"github.com/cuemby/topicgate/pkg/log"
	"github.com/cuemby/topicgate/pkg/registry"
	"github.com/cuemby/topicgate/pkg/types"
)

const (
	// sweepInterval is how often the cleanup sweeper scans the registry.
	sweepInterval = 5 * time.Second
	// staleThreshold is how long a topic may sit at zero subscribers
	// before the sweeper reminds its publisher with a TIMEOUT event.
	staleThreshold = 30 * time.Second

	// deletionPayload is published to a topic's own subject as a tombstone
	// so subscribers observe the deletion before broker-side teardown.
	deletionPayload = "TOPIC DELETED"

	eventQueueDepth = 256
)

// Manager runs the event loop and owns dispatch to the Callback Client and
// Broker Connector. The zero value is not usable; construct with New.
type Manager struct {
	reg      *registry.Registry
	cb       *callback.Client
	conn     broker.Connector
	events   chan types.TopicEvent
	dispatch chan types.ManagementAction

	deletionPayload string
	sweepInterval   time.Duration
	staleThreshold  time.Duration
}

// New creates a Manager backed by reg, cb and conn. Run must be called to
// start processing. The deletion tombstone payload, sweep interval, and
// stale threshold default to their package constants; override them with
// SetDeletionPayload/SetSweepParams before Run.
func New(reg *registry.Registry, cb *callback.Client, conn broker.Connector) *Manager {
	return &Manager{
		reg:             reg,
		cb:              cb,
		conn:            conn,
		events:          make(chan types.TopicEvent, eventQueueDepth),
		dispatch:        make(chan types.ManagementAction, eventQueueDepth),
		deletionPayload: deletionPayload,
		sweepInterval:   sweepInterval,
		staleThreshold:  staleThreshold,
	}
}

// SetDeletionPayload overrides the tombstone payload published to a topic
// immediately before broker-side teardown. Must be called before Run.
func (m *Manager) SetDeletionPayload(payload string) {
	m.deletionPayload = payload
}

// SetSweepParams overrides the cleanup sweeper's interval and idle
// threshold. Must be called before Run.
func (m *Manager) SetSweepParams(interval, staleAfter time.Duration) {
	m.sweepInterval = interval
	m.staleThreshold = staleAfter
}

// Events returns the channel the Broker Connector's Start should stream
// into. The cleanup sweeper feeds it too. CreateTopic and DeleteTopic do not:
// they change the registry directly (Insert and Mutate).
func (m *Manager) Events() chan<- types.TopicEvent { return m.events }

// Run drives the event loop, the cleanup sweeper, and the dispatch workers
// until ctx is cancelled. It blocks; callers typically run it in its own
// goroutine.
func (m *Manager) Run(ctx context.Context) {
	go m.dispatchLoop(ctx)

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-m.events:
			m.handle(ctx, ev)
		case <-ticker.C:
			m.sweep()
		case <-ctx.Done():
			return
		}
	}
}

// CreateTopic allocates a new topic id for publisherID and registers it
// with count 0 and callbackURI attached, retrying on the astronomically
// unlikely UUID collision. It returns the generated topic id.
func (m *Manager) CreateTopic(publisherID, callbackURI string) (string, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id := uuid.NewString()
		err := m.reg.Insert(id, types.Topic{
			ID:                    id,
			OwnerPublisherID:      publisherID,
			SubscriberCount:       0,
			ManagementCallbackURI: callbackURI,
			LastActionAt:          time.Now(),
		})
		if err == nil {
			log.Info(fmt.Sprintf("topicmanager: created topic %s for publisher %s", id, publisherID))
			return id, nil
		}
		if err != registry.ErrExists {
			return "", err
		}
	}
	return "", fmt.Errorf("topicmanager: could not allocate a unique topic id after %d attempts", maxAttempts)
}

// DeleteTopic marks topicID for deletion. The next cleanup sweep observes
// the flag and emits the Delete event that actually tears the topic down,
// so the RPC caller is never blocked waiting on broker or publisher I/O.
// A missing or already-marked topic is a success, not an error.
func (m *Manager) DeleteTopic(topicID string) {
	m.reg.Mutate(topicID, func(t types.Topic, exists bool) (types.Topic, bool) {
		if !exists {
			return t, false
		}
		t.MarkedForDeletion = true
		return t, true
	})
}

// handle applies one TopicEvent to the registry and queues whatever
// ManagementAction the transition produces for asynchronous dispatch.
func (m *Manager) handle(ctx context.Context, ev types.TopicEvent) {
	if ev.Kind == types.EventPublisherDisconnect {
		m.handlePublisherDisconnect(ctx, ev.Context)
		return
	}

	if action, ok := m.transition(ev); ok {
		m.queue(ctx, action)
	}
}

// handlePublisherDisconnect enumerates every topic owned by the
// disconnecting publisher and drives each one through a DELETE transition,
// since a publisher that has gone away uncleanly will never publish to
// those topics again.
func (m *Manager) handlePublisherDisconnect(ctx context.Context, publisherID string) {
	log.Info(fmt.Sprintf("topicmanager: publisher %s disconnected, deleting its topics", publisherID))

	for _, t := range m.reg.Snapshot() {
		if t.OwnerPublisherID != publisherID {
			continue
		}
		if action, ok := m.transition(types.TopicEvent{Kind: types.EventDelete, Context: t.ID}); ok {
			m.queue(ctx, action)
		}
	}
}

// transition applies the exact per-event state-machine logic to the
// registry and returns the ManagementAction to dispatch, if any.
func (m *Manager) transition(ev types.TopicEvent) (types.ManagementAction, bool) {
	var action types.ManagementAction
	var hasAction bool

	switch ev.Kind {
	case types.EventSubscribe:
		m.reg.Mutate(ev.Context, func(t types.Topic, exists bool) (types.Topic, bool) {
			if !exists {
				// A subscription can race topic creation; capture it as a
				// placeholder with no owner/callback yet, so later
				// Subscribe/Unsubscribe events for this id find the count
				// intact. CreateTopic never binds to it: it always allocates
				// a fresh id.
				return types.Topic{ID: ev.Context, SubscriberCount: 1, LastActionAt: time.Now()}, true
			}

			t.SubscriberCount++
			t.LastActionAt = time.Now()
			if t.HasCallback() && t.SubscriberCount == 1 {
				action = types.ManagementAction{Kind: types.ActionStart, TopicID: t.ID, TargetURI: t.ManagementCallbackURI}
				hasAction = true
			}
			return t, true
		})

	case types.EventUnsubscribe:
		m.reg.Mutate(ev.Context, func(t types.Topic, exists bool) (types.Topic, bool) {
			if !exists {
				return t, false
			}
			pre := t.SubscriberCount
			t.SubscriberCount--
			t.LastActionAt = time.Now()
			if t.SubscriberCount <= 0 {
				t.SubscriberCount = 0 // duplicate unsubscribe messages must never go negative
				if pre > 0 && t.HasCallback() {
					action = types.ManagementAction{Kind: types.ActionStop, TopicID: t.ID, TargetURI: t.ManagementCallbackURI}
					hasAction = true
				}
			}
			return t, true
		})

	case types.EventTimeout:
		m.reg.Mutate(ev.Context, func(t types.Topic, exists bool) (types.Topic, bool) {
			if !exists {
				return t, false
			}
			t.LastActionAt = time.Now()
			if t.SubscriberCount <= 0 {
				t.SubscriberCount = 0
				if t.HasCallback() {
					action = types.ManagementAction{Kind: types.ActionStop, TopicID: t.ID, TargetURI: t.ManagementCallbackURI}
					hasAction = true
				}
			}
			return t, true
		})

	case types.EventDelete:
		if t, ok := m.reg.Remove(ev.Context); ok && t.HasCallback() {
			action = types.ManagementAction{Kind: types.ActionDelete, TopicID: t.ID, TargetURI: t.ManagementCallbackURI}
			hasAction = true
		}
	}

	return action, hasAction
}

// sweep scans the registry once: topics already marked for deletion are
// driven through a DELETE event, and idle-at-zero topics past
// staleThreshold get a TIMEOUT reminder sent to their publisher.
func (m *Manager) sweep() {
	now := time.Now()
	for _, t := range m.reg.Snapshot() {
		switch {
		case t.MarkedForDeletion:
			select {
			case m.events <- types.TopicEvent{Kind: types.EventDelete, Context: t.ID}:
			default:
				log.Warn(fmt.Sprintf("topicmanager: event queue full, deferring delete sweep for %s", t.ID))
			}
		case t.SubscriberCount == 0 && now.Sub(t.LastActionAt) > m.staleThreshold:
			select {
			case m.events <- types.TopicEvent{Kind: types.EventTimeout, Context: t.ID}:
			default:
				log.Warn(fmt.Sprintf("topicmanager: event queue full, deferring timeout sweep for %s", t.ID))
			}
		}
	}
}

// queue hands action to the dispatch worker without blocking the event
// loop on publisher or broker I/O.
func (m *Manager) queue(ctx context.Context, action types.ManagementAction) {
	select {
	case m.dispatch <- action:
	case <-ctx.Done():
	}
}

// dispatchLoop delivers queued ManagementActions to the Callback Client or,
// for deletions, to the Broker Connector's tombstone publish. Running this
// on its own goroutine keeps a slow or unreachable publisher from stalling
// the event loop.
func (m *Manager) dispatchLoop(ctx context.Context) {
	for {
		select {
		case action := <-m.dispatch:
			m.deliver(ctx, action)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) deliver(ctx context.Context, action types.ManagementAction) {
	if action.Kind == types.ActionDelete {
		if err := m.conn.DeleteTopic(ctx, action.TopicID, m.deletionPayload); err != nil {
			log.Error(fmt.Sprintf("topicmanager: broker delete of %s failed: %v", action.TopicID, err))
		}
		return
	}

	if err := m.cb.Notify(ctx, action); err != nil {
		log.Error(fmt.Sprintf("topicmanager: notify %s for %s failed: %v", action.Kind, action.TopicID, err))
	}
}
