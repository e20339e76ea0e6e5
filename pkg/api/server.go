// Package api implements the PubSub RPC Server (C5) and the ambient
// HTTP surface (/health, /ready, /metrics).
package api

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/cuemby/topicgate/internal/config"
	"github.com/cuemby/topicgate/pkg/log"
	"github.com/cuemby/topicgate/pkg/metrics"
	"github.com/cuemby/topicgate/pkg/rpc"
	"github.com/cuemby/topicgate/pkg/topicmanager"
)

// Server implements rpc.PubSubServer, thin-delegating every RPC to the
// Topic Manager. No mTLS: authenticating publishers is an explicit
// Non-goal, so the gRPC server is plain.
type Server struct {
	mgr            *topicmanager.Manager
	brokerURI      string
	brokerProtocol string

	grpc *grpc.Server
}

// NewServer creates a Server that reports brokerURI/brokerProtocol back to
// callers of CreateTopic as the endpoint their subscribers should connect
// to.
func NewServer(mgr *topicmanager.Manager, cfg config.Config) *Server {
	return &Server{
		mgr:            mgr,
		brokerURI:      cfg.MessagingURI,
		brokerProtocol: "MQTT_V5",
		grpc:           grpc.NewServer(),
	}
}

// Serve registers the PubSub service and blocks accepting connections on
// lis until the server is stopped or the listener errors.
func (s *Server) Serve(lis net.Listener) error {
	rpc.RegisterPubSubServer(s.grpc, s)
	log.Info("pubsub rpc server listening on " + lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

// CreateTopic allocates a new topic owned by req.PublisherID and bound to
// req.ManagementCallback, returning its id and the broker endpoint
// subscribers should connect to.
func (s *Server) CreateTopic(ctx context.Context, req *rpc.CreateTopicRequest) (*rpc.CreateTopicResponse, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RPCRequestDuration, "CreateTopic")

	if req.PublisherID == "" {
		metrics.RPCRequestsTotal.WithLabelValues("CreateTopic", "invalid_argument").Inc()
		return nil, fmt.Errorf("api: publisher_id is required")
	}

	id, err := s.mgr.CreateTopic(req.PublisherID, req.ManagementCallback)
	if err != nil {
		metrics.RPCRequestsTotal.WithLabelValues("CreateTopic", "error").Inc()
		return nil, fmt.Errorf("api: create topic: %w", err)
	}

	metrics.RPCRequestsTotal.WithLabelValues("CreateTopic", "ok").Inc()
	metrics.TopicsCreatedTotal.Inc()
	log.WithTopicID(id).Info().Msg("topic created")

	return &rpc.CreateTopicResponse{
		GeneratedTopic: id,
		BrokerURI:      s.brokerURI,
		BrokerProtocol: s.brokerProtocol,
	}, nil
}

// DeleteTopic marks req.Topic for deletion; the cleanup sweep performs the
// actual broker-side teardown. Deleting a topic that doesn't exist, or one
// already marked for deletion, is not an error.
func (s *Server) DeleteTopic(ctx context.Context, req *rpc.DeleteTopicRequest) (*rpc.DeleteTopicResponse, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RPCRequestDuration, "DeleteTopic")

	if req.Topic == "" {
		metrics.RPCRequestsTotal.WithLabelValues("DeleteTopic", "invalid_argument").Inc()
		return nil, fmt.Errorf("api: topic is required")
	}

	s.mgr.DeleteTopic(req.Topic)
	metrics.RPCRequestsTotal.WithLabelValues("DeleteTopic", "ok").Inc()
	metrics.TopicsDeletedTotal.Inc()
	log.WithTopicID(req.Topic).Info().Msg("topic marked for deletion")

	return &rpc.DeleteTopicResponse{}, nil
}
