package api

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cuemby/topicgate/internal/config"
	"github.com/cuemby/topicgate/pkg/broker/memory"
	"github.com/cuemby/topicgate/pkg/callback"
	"github.com/cuemby/topicgate/pkg/registry"
	"github.com/cuemby/topicgate/pkg/rpc"
	"github.com/cuemby/topicgate/pkg/topicmanager"
)

func startTestServer(t *testing.T) (rpc.PubSubClient, func()) {
	t.Helper()

	reg := registry.New()
	cb := callback.New()
	conn := memory.New()
	mgr := topicmanager.New(reg, cb, conn)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = conn.Start(ctx, mgr.Events()) }()
	go mgr.Run(ctx)

	srv := NewServer(mgr, config.Config{MessagingURI: "mqtt://127.0.0.1:1883"})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(lis) }()

	cc, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	stop := func() {
		_ = cc.Close()
		srv.Stop()
		cancel()
		cb.Close()
	}
	return rpc.NewPubSubClient(cc), stop
}

func TestCreateTopic(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	resp, err := client.CreateTopic(context.Background(), &rpc.CreateTopicRequest{
		PublisherID:        "P1",
		ManagementCallback: "http://127.0.0.1:1",
	})
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if resp.GeneratedTopic == "" {
		t.Fatal("expected a generated topic id")
	}
	if resp.BrokerURI != "mqtt://127.0.0.1:1883" {
		t.Errorf("unexpected broker uri: %s", resp.BrokerURI)
	}
	if resp.BrokerProtocol != "MQTT_V5" {
		t.Errorf("unexpected broker protocol: %s", resp.BrokerProtocol)
	}
}

func TestCreateTopicRejectsMissingPublisherID(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	if _, err := client.CreateTopic(context.Background(), &rpc.CreateTopicRequest{}); err == nil {
		t.Fatal("expected an error for a missing publisher_id")
	}
}

func TestDeleteTopic(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	created, err := client.CreateTopic(context.Background(), &rpc.CreateTopicRequest{PublisherID: "P1"})
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	if _, err := client.DeleteTopic(context.Background(), &rpc.DeleteTopicRequest{Topic: created.GeneratedTopic}); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
}

func TestDeleteTopicRejectsMissingTopic(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	if _, err := client.DeleteTopic(context.Background(), &rpc.DeleteTopicRequest{}); err == nil {
		t.Fatal("expected an error for a missing topic")
	}
}

func TestDeleteTopicOfUnknownTopicIsNotAnError(t *testing.T) {
	client, stop := startTestServer(t)
	defer stop()

	if _, err := client.DeleteTopic(context.Background(), &rpc.DeleteTopicRequest{Topic: "never-existed"}); err != nil {
		t.Fatalf("DeleteTopic of an unknown topic should succeed, got: %v", err)
	}
}
