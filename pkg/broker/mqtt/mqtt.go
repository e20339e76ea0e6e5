// Package mqtt is the default Broker Connector (C1): an MQTT v5 client
// session built on github.com/eclipse/paho.golang's autopaho, which already
// implements the bounded-backoff auto-reconnect policy §4.1 requires.
package mqtt

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/cuemby/topicgate/pkg/log"
	"github.com/cuemby/topicgate/pkg/types"
)

const (
	// DefaultControlTopic is where publishers register an LWT carrying
	// their publisher id, per §6 "Control topic on the broker".
	DefaultControlTopic = "publisher/disconnect"

	// DefaultNotificationPrefix is the well-known topic space the default
	// connector assumes a broker deployment surfaces subscribe/unsubscribe
	// notifications under (see SPEC_FULL.md §4.1 for the documented
	// assumption). Standard MQTT has no such notification; deployments
	// without it rely on the cleanup sweep as a backstop.
	DefaultNotificationPrefix = "$broker/notifications"

	defaultKeepAlive            = 30
	defaultSessionExpirySeconds = 3600
	connectTimeout              = 30 * time.Second
)

// Config configures the MQTT v5 Broker Connector.
type Config struct {
	// ServerURL is the broker endpoint, e.g. "mqtt://localhost:1883".
	ServerURL string
	// ClientID identifies this connector's own session on the broker.
	ClientID string
	// ControlTopic is where publisher-disconnect LWTs are observed.
	ControlTopic string
	// NotificationPrefix is the topic space subscribe/unsubscribe
	// notifications are read from (see DefaultNotificationPrefix).
	NotificationPrefix string
	// KeepAlive is the MQTT keep-alive interval in seconds.
	KeepAlive uint16
	// SessionExpiryInterval is requested on connect, in seconds.
	SessionExpiryInterval uint32
}

func (c *Config) setDefaults() {
	if c.ControlTopic == "" {
		c.ControlTopic = DefaultControlTopic
	}
	if c.NotificationPrefix == "" {
		c.NotificationPrefix = DefaultNotificationPrefix
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.SessionExpiryInterval == 0 {
		c.SessionExpiryInterval = defaultSessionExpirySeconds
	}
	if c.ClientID == "" {
		c.ClientID = "topicgate"
	}
}

// Connector is the MQTT v5 broker.Connector implementation.
type Connector struct {
	cfg Config
	cm  *autopaho.ConnectionManager

	subscribeTopic   string
	unsubscribeTopic string
}

// New creates an MQTT Connector. It does not connect until Start is called.
func New(cfg Config) *Connector {
	cfg.setDefaults()
	return &Connector{
		cfg:              cfg,
		subscribeTopic:   cfg.NotificationPrefix + "/subscribe/",
		unsubscribeTopic: cfg.NotificationPrefix + "/unsubscribe/",
	}
}

// Start implements broker.Connector: connects to the broker, subscribes to
// the control topic and the notification prefix, and streams TopicEvents
// into sink until ctx is cancelled. Reconnection with bounded exponential
// backoff is handled by autopaho internally.
func (c *Connector) Start(ctx context.Context, sink chan<- types.TopicEvent) error {
	serverURL, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("mqtt: parse server url %q: %w", c.cfg.ServerURL, err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:            []*url.URL{serverURL},
		KeepAlive:             c.cfg.KeepAlive,
		SessionExpiryInterval: c.cfg.SessionExpiryInterval,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			log.Info(fmt.Sprintf("mqtt: connected to %s", c.cfg.ServerURL))
			subCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			c.resubscribe(subCtx, cm)
		},
		OnConnectError: func(err error) {
			log.Error(fmt.Sprintf("mqtt: connection error: %v", err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID: c.cfg.ClientID,
		},
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt: connect: %w", err)
	}
	c.cm = cm

	cm.AddOnPublishReceived(func(pr autopaho.PublishReceived) (bool, error) {
		c.handleMessage(ctx, sink, pr.Packet.Topic, pr.Packet.Payload)
		return true, nil
	})

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		// autopaho keeps retrying with bounded backoff in the background;
		// this is a transient-I/O condition, not fatal (§7.1).
		log.Warn(fmt.Sprintf("mqtt: initial connection not yet established, retrying in background: %v", err))
	}

	<-ctx.Done()
	return ctx.Err()
}

func (c *Connector) resubscribe(ctx context.Context, cm *autopaho.ConnectionManager) {
	subs := []paho.SubscribeOptions{
		{Topic: c.cfg.ControlTopic, QoS: 1},
		{Topic: c.cfg.NotificationPrefix + "/subscribe/+", QoS: 1},
		{Topic: c.cfg.NotificationPrefix + "/unsubscribe/+", QoS: 1},
	}
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{Subscriptions: subs}); err != nil {
		log.Error(fmt.Sprintf("mqtt: subscribe failed: %v", err))
	}
}

// handleMessage classifies an inbound publish and, if it corresponds to one
// of the three event sources named in §4.1, forwards a TopicEvent to sink.
func (c *Connector) handleMessage(ctx context.Context, sink chan<- types.TopicEvent, topic string, payload []byte) {
	var ev types.TopicEvent

	switch {
	case topic == c.cfg.ControlTopic:
		ev = types.TopicEvent{Kind: types.EventPublisherDisconnect, Context: string(payload)}
	case strings.HasPrefix(topic, c.subscribeTopic):
		ev = types.TopicEvent{Kind: types.EventSubscribe, Context: strings.TrimPrefix(topic, c.subscribeTopic)}
	case strings.HasPrefix(topic, c.unsubscribeTopic):
		ev = types.TopicEvent{Kind: types.EventUnsubscribe, Context: strings.TrimPrefix(topic, c.unsubscribeTopic)}
	default:
		return
	}

	select {
	case sink <- ev:
	case <-ctx.Done():
	}
}

// DeleteTopic implements broker.Connector: publishes payload to topicID at
// QoS 1 so subscribers observe the tombstone before broker-side teardown.
// Mosquitto-class brokers have no admin-removal API, so there is nothing
// further to do beyond the sentinel publish for the default deployment.
func (c *Connector) DeleteTopic(ctx context.Context, topicID, payload string) error {
	if c.cm == nil {
		return fmt.Errorf("mqtt: connector not started")
	}

	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := c.cm.Publish(ctx, &paho.Publish{
			Topic:   topicID,
			Payload: []byte(payload),
			QoS:     1,
		})
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn(fmt.Sprintf("mqtt: publish sentinel to %s failed (attempt %d/%d): %v", topicID, attempt, maxAttempts, err))
	}
	return fmt.Errorf("mqtt: publish sentinel to %s after %d attempts: %w", topicID, maxAttempts, lastErr)
}
