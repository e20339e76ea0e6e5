// Package client provides a thin wrapper around the PubSub RPC client for
// the ops CLI (topic create-topic / topic delete-topic).
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cuemby/topicgate/pkg/rpc"
)

// Client wraps the PubSub gRPC client for CLI usage. No mTLS: operator
// authentication is an explicit Non-goal.
type Client struct {
	conn *grpc.ClientConn
	rpc  rpc.PubSubClient
}

// NewClient dials addr and returns a Client ready to issue ops commands.
func NewClient(addr string) (*Client, error) {
	target := strings.TrimPrefix(strings.TrimPrefix(addr, "https://"), "http://")
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, rpc: rpc.NewPubSubClient(conn)}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// CreateTopic allocates a topic owned by publisherID, notifying it on
// lifecycle changes via managementCallback. Returns the generated topic id
// and the broker endpoint subscribers should use.
func (c *Client) CreateTopic(publisherID, managementCallback string) (*rpc.CreateTopicResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return c.rpc.CreateTopic(ctx, &rpc.CreateTopicRequest{
		PublisherID:        publisherID,
		ManagementCallback: managementCallback,
		ManagementProtocol: "GRPC",
	})
}

// DeleteTopic marks topic for deletion.
func (c *Client) DeleteTopic(topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.rpc.DeleteTopic(ctx, &rpc.DeleteTopicRequest{Topic: topic})
	return err
}
