package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// PubSubServer is the inbound RPC surface (C5): CreateTopic allocates a
// topic, DeleteTopic marks one for removal.
type PubSubServer interface {
	CreateTopic(context.Context, *CreateTopicRequest) (*CreateTopicResponse, error)
	DeleteTopic(context.Context, *DeleteTopicRequest) (*DeleteTopicResponse, error)
}

// RegisterPubSubServer registers impl against grpc server s under the
// hand-written PubSub service descriptor.
func RegisterPubSubServer(s grpc.ServiceRegistrar, impl PubSubServer) {
	s.RegisterService(&pubSubServiceDesc, impl)
}

var pubSubServiceDesc = grpc.ServiceDesc{
	ServiceName: "topicgate.PubSub",
	HandlerType: (*PubSubServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateTopic",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(CreateTopicRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(PubSubServer).CreateTopic(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/topicgate.PubSub/CreateTopic"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(PubSubServer).CreateTopic(ctx, req.(*CreateTopicRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "DeleteTopic",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(DeleteTopicRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(PubSubServer).DeleteTopic(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/topicgate.PubSub/DeleteTopic"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(PubSubServer).DeleteTopic(ctx, req.(*DeleteTopicRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "topicgate/pubsub.proto",
}

// PubSubClient is the client-side stub used by the ops CLI (§6 Ops CLI).
type PubSubClient interface {
	CreateTopic(ctx context.Context, req *CreateTopicRequest) (*CreateTopicResponse, error)
	DeleteTopic(ctx context.Context, req *DeleteTopicRequest) (*DeleteTopicResponse, error)
}

type pubSubClient struct {
	cc grpc.ClientConnInterface
}

// NewPubSubClient wraps conn for calling the PubSub service with the JSON
// content-subtype codec.
func NewPubSubClient(conn grpc.ClientConnInterface) PubSubClient {
	return &pubSubClient{cc: conn}
}

func (c *pubSubClient) CreateTopic(ctx context.Context, req *CreateTopicRequest) (*CreateTopicResponse, error) {
	out := new(CreateTopicResponse)
	err := c.cc.Invoke(ctx, "/topicgate.PubSub/CreateTopic", req, out, grpc.CallContentSubtype(ContentSubtype))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pubSubClient) DeleteTopic(ctx context.Context, req *DeleteTopicRequest) (*DeleteTopicResponse, error) {
	out := new(DeleteTopicResponse)
	err := c.cc.Invoke(ctx, "/topicgate.PubSub/DeleteTopic", req, out, grpc.CallContentSubtype(ContentSubtype))
	if err != nil {
		return nil, err
	}
	return out, nil
}
