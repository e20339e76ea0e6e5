// Package types holds the data model shared across the pub/sub topic
// broker: the Topic entity, the events the Topic Manager consumes, and the
// outbound actions it emits to publishers.
package types

import "time"

// Topic is the unit of management: an ephemeral named channel on the
// messaging broker allocated by CreateTopic (or implicitly by a Subscribe
// that races ahead of its publisher).
type Topic struct {
	ID                    string
	OwnerPublisherID      string
	SubscriberCount       int
	ManagementCallbackURI string // empty means "no callback bound yet"
	LastActionAt          time.Time
	MarkedForDeletion     bool
}

// HasCallback reports whether the topic has a management callback bound.
// It is false for Subscribe placeholders and also for topics created via
// CreateTopic with an empty callback URI.
func (t Topic) HasCallback() bool {
	return t.ManagementCallbackURI != ""
}

// EventKind enumerates the events the Topic Manager's event loop consumes.
type EventKind string

const (
	EventSubscribe           EventKind = "SUBSCRIBE"
	EventUnsubscribe         EventKind = "UNSUBSCRIBE"
	EventTimeout             EventKind = "TIMEOUT"
	EventDelete              EventKind = "DELETE"
	EventPublisherDisconnect EventKind = "PUBLISHERDISCONNECT"
)

// TopicEvent is a message from the Broker Connector or the internal
// scheduler (cleanup sweeper) destined for the Topic Manager's event loop.
//
// Context holds the topic id for every kind except EventPublisherDisconnect,
// where it holds the publisher id whose session was lost.
type TopicEvent struct {
	Kind    EventKind
	Context string
}

// ActionKind enumerates the lifecycle notifications sent to publishers.
type ActionKind string

const (
	ActionStart  ActionKind = "START"
	ActionStop   ActionKind = "STOP"
	ActionDelete ActionKind = "DELETE"
)

// ManagementAction is an outbound notification the Topic Manager asks the
// Publisher Callback Client (C2) to deliver. Delete actions never reach C2 —
// the manager short-circuits them into a broker-side deletion instead.
type ManagementAction struct {
	Kind      ActionKind
	TopicID   string
	TargetURI string
}
