// Package callback implements the Publisher Callback Client (C2): the
// outbound RPC that tells a topic's owning publisher to Start, Stop, or
// (never, by contract) Delete.
package callback

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/topicgate/pkg/log"
	"github.com/cuemby/topicgate/pkg/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pgtypes "github.com/cuemby/topicgate/pkg/types"
)

// Timeout bounds every outbound ManageTopic call (§5 "Cancellation & timeouts").
const Timeout = 10 * time.Second

// Client dials a publisher's management callback URI and delivers
// ManagementActions. Connections are cached per target URI and reused
// across calls to the same publisher; a failed dial or RPC is logged and
// never retried here — the Topic Manager owns re-application policy.
type Client struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// New creates a Publisher Callback Client.
func New() *Client {
	return &Client{conns: make(map[string]*grpc.ClientConn)}
}

// Notify delivers action to action.TargetURI. It is a no-op for
// ActionDelete — deletion is always publisher-initiated or driven by a
// disconnect, so the manager never needs to tell the publisher "delete
// yourself"; see topicmanager's short-circuit.
func (c *Client) Notify(ctx context.Context, action pgtypes.ManagementAction) error {
	if action.Kind == pgtypes.ActionDelete {
		return nil
	}
	if action.TargetURI == "" {
		return fmt.Errorf("callback: empty target URI for topic %s", action.TopicID)
	}

	conn, err := c.connFor(action.TargetURI)
	if err != nil {
		log.Error(fmt.Sprintf("callback: dial %s failed: %v", action.TargetURI, err))
		return fmt.Errorf("callback: dial %s: %w", action.TargetURI, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	client := rpc.NewPublisherCallbackClient(conn)
	_, err = client.ManageTopic(callCtx, &rpc.ManageTopicRequest{
		Topic:  action.TopicID,
		Action: string(action.Kind),
	})
	if err != nil {
		log.Error(fmt.Sprintf("callback: ManageTopic(%s, %s) to %s failed: %v", action.TopicID, action.Kind, action.TargetURI, err))
		return fmt.Errorf("callback: ManageTopic to %s: %w", action.TargetURI, err)
	}
	return nil
}

// connFor returns a cached connection for uri, dialing a fresh one on first
// use. No authentication is configured (Non-goal: no auth/authz). Publisher
// callback URIs are conventionally written with an "http://" scheme even
// though the transport is plain gRPC, so it is stripped before dialing.
func (c *Client) connFor(uri string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[uri]; ok {
		return conn, nil
	}

	target := strings.TrimPrefix(strings.TrimPrefix(uri, "https://"), "http://")
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	c.conns[uri] = conn
	return conn, nil
}

// Close tears down every cached connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for uri, conn := range c.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("callback: closing conn to %s: %w", uri, err)
		}
	}
	c.conns = make(map[string]*grpc.ClientConn)
	return firstErr
}
