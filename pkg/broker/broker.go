// Package broker defines the narrow seam (C1's contract) that every
// messaging-broker implementation plugs into. The default implementation
// (pkg/broker/mqtt) targets MQTT v5; pkg/broker/memory exists for tests and
// local development without a running broker.
package broker

import (
	"context"

	"github.com/cuemby/topicgate/pkg/types"
)

// Connector is the only seam a broker implementation must satisfy. Start
// streams TopicEvents into sink until ctx is cancelled; DeleteTopic
// publishes the sentinel payload and tears down broker-side state if the
// broker supports it.
type Connector interface {
	// Start establishes a session with the broker and begins streaming
	// events into sink. It blocks until ctx is cancelled or the session
	// fails unrecoverably.
	Start(ctx context.Context, sink chan<- types.TopicEvent) error

	// DeleteTopic publishes payload to topicID at QoS >= 1, then requests
	// broker-side teardown of the topic's state if the broker supports it.
	DeleteTopic(ctx context.Context, topicID, payload string) error
}
