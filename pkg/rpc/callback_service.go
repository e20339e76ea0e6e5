package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// PublisherCallbackClient is the outbound surface (C2): ManageTopic delivers
// a Start/Stop/Delete notification to a publisher's management callback
// URI. Only the client side is implemented here — the server lives in the
// publisher, which is out of scope for this service.
type PublisherCallbackClient interface {
	ManageTopic(ctx context.Context, req *ManageTopicRequest) (*ManageTopicResponse, error)
}

type publisherCallbackClient struct {
	cc grpc.ClientConnInterface
}

// NewPublisherCallbackClient wraps conn for calling a publisher's
// ManageTopic RPC with the JSON content-subtype codec.
func NewPublisherCallbackClient(conn grpc.ClientConnInterface) PublisherCallbackClient {
	return &publisherCallbackClient{cc: conn}
}

func (c *publisherCallbackClient) ManageTopic(ctx context.Context, req *ManageTopicRequest) (*ManageTopicResponse, error) {
	out := new(ManageTopicResponse)
	err := c.cc.Invoke(ctx, "/topicgate.PublisherCallback/ManageTopic", req, out, grpc.CallContentSubtype(ContentSubtype))
	if err != nil {
		return nil, err
	}
	return out, nil
}
