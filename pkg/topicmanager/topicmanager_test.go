package topicmanager

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/cuemby/topicgate/pkg/broker/memory"
	"github.com/cuemby/topicgate/pkg/callback"
	"github.com/cuemby/topicgate/pkg/registry"
	"github.com/cuemby/topicgate/pkg/rpc"
	"github.com/cuemby/topicgate/pkg/types"
)

// fakePublisher is a minimal in-test stand-in for a publisher's
// PublisherCallback gRPC server, recording every ManageTopic call it
// receives. The real server lives in the publisher and is out of scope
// for this service; this exists purely to exercise callback.Client
// end-to-end in tests.
type fakePublisher struct {
	mu    sync.Mutex
	calls []rpc.ManageTopicRequest
}

func (f *fakePublisher) record(req *rpc.ManageTopicRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, *req)
}

func (f *fakePublisher) Calls() []rpc.ManageTopicRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rpc.ManageTopicRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

func startFakePublisher(t *testing.T) (addr string, pub *fakePublisher, stop func()) {
	t.Helper()

	if encoding.GetCodec(rpc.ContentSubtype) == nil {
		t.Fatalf("rpc json codec not registered")
	}

	pub = &fakePublisher{}
	desc := &grpc.ServiceDesc{
		ServiceName: "topicgate.PublisherCallback",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ManageTopic",
				Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					req := new(rpc.ManageTopicRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					pub.record(req)
					return &rpc.ManageTopicResponse{}, nil
				},
			},
		},
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	srv.RegisterService(desc, nil)

	go func() { _ = srv.Serve(lis) }()

	return lis.Addr().String(), pub, func() {
		srv.Stop()
		_ = lis.Close()
	}
}

func newTestManager() (*Manager, *registry.Registry, *memory.Connector, *callback.Client) {
	reg := registry.New()
	conn := memory.New()
	cb := callback.New()
	return New(reg, cb, conn), reg, conn, cb
}

func runManager(t *testing.T, m *Manager, conn *memory.Connector) (ctx context.Context, cancel context.CancelFunc) {
	t.Helper()
	ctx, cancel = context.WithCancel(context.Background())
	go func() { _ = conn.Start(ctx, m.Events()) }()
	go m.Run(ctx)
	return ctx, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestHappyPath(t *testing.T) {
	addr, pub, stop := startFakePublisher(t)
	defer stop()

	m, reg, conn, cb := newTestManager()
	defer cb.Close()
	ctx, cancel := runManager(t, m, conn)
	defer cancel()

	topicID, err := m.CreateTopic("P1", "http://"+addr)
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	conn.Inject(ctx, types.TopicEvent{Kind: types.EventSubscribe, Context: topicID})
	waitFor(t, func() bool { return len(pub.Calls()) == 1 })
	if got := pub.Calls()[0]; got.Action != string(types.ActionStart) || got.Topic != topicID {
		t.Fatalf("unexpected first call: %+v", got)
	}

	conn.Inject(ctx, types.TopicEvent{Kind: types.EventUnsubscribe, Context: topicID})
	waitFor(t, func() bool { return len(pub.Calls()) == 2 })
	if got := pub.Calls()[1]; got.Action != string(types.ActionStop) {
		t.Fatalf("unexpected second call: %+v", got)
	}

	m.DeleteTopic(topicID)
	m.sweep()
	waitFor(t, func() bool { return len(conn.Deletions()) == 1 })
	if d := conn.Deletions()[0]; d.TopicID != topicID || d.Payload != deletionPayload {
		t.Fatalf("unexpected deletion: %+v", d)
	}
	waitFor(t, func() bool { _, ok := reg.Get(topicID); return !ok })
}

func TestSubscribeRacesCreate(t *testing.T) {
	m, reg, conn, cb := newTestManager()
	defer cb.Close()
	ctx, cancel := runManager(t, m, conn)
	defer cancel()

	conn.Inject(ctx, types.TopicEvent{Kind: types.EventSubscribe, Context: "T"})
	waitFor(t, func() bool {
		top, ok := reg.Get("T")
		return ok && top.SubscriberCount == 1
	})
	top, _ := reg.Get("T")
	if top.HasCallback() {
		t.Fatalf("placeholder topic should have no callback")
	}

	conn.Inject(ctx, types.TopicEvent{Kind: types.EventUnsubscribe, Context: "T"})
	waitFor(t, func() bool {
		top, ok := reg.Get("T")
		return ok && top.SubscriberCount == 0
	})
}

func TestIdleTimeoutReminds(t *testing.T) {
	m, reg, _, cb := newTestManager()
	defer cb.Close()

	if err := reg.Insert("T", types.Topic{
		ID:                    "T",
		ManagementCallbackURI: "http://unreachable:9",
		LastActionAt:          time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	action, ok := m.transition(types.TopicEvent{Kind: types.EventTimeout, Context: "T"})
	if !ok || action.Kind != types.ActionStop {
		t.Fatalf("expected a Stop reminder, got %+v ok=%v", action, ok)
	}

	top, _ := reg.Get("T")
	if time.Since(top.LastActionAt) > time.Second {
		t.Fatalf("last_action_at was not refreshed")
	}
}

func TestPublisherDisconnectDeletesOwnedTopicsOnly(t *testing.T) {
	m, reg, conn, cb := newTestManager()
	defer cb.Close()
	ctx, cancel := runManager(t, m, conn)
	defer cancel()

	for _, tc := range []struct{ id, owner string }{
		{"T1", "P1"}, {"T2", "P1"}, {"T3", "P2"},
	} {
		if err := reg.Insert(tc.id, types.Topic{ID: tc.id, OwnerPublisherID: tc.owner}); err != nil {
			t.Fatalf("insert %s: %v", tc.id, err)
		}
	}

	conn.Inject(ctx, types.TopicEvent{Kind: types.EventPublisherDisconnect, Context: "P1"})

	waitFor(t, func() bool {
		_, t1ok := reg.Get("T1")
		_, t2ok := reg.Get("T2")
		return !t1ok && !t2ok
	})
	if _, ok := reg.Get("T3"); !ok {
		t.Fatalf("T3 belongs to a different publisher and should survive")
	}
}

func TestUnsubscribeUnderflowEmitsStopOnce(t *testing.T) {
	m, reg, _, cb := newTestManager()
	defer cb.Close()

	if err := reg.Insert("T", types.Topic{ID: "T", SubscriberCount: 1, ManagementCallbackURI: "http://p:1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, ok := m.transition(types.TopicEvent{Kind: types.EventUnsubscribe, Context: "T"})
	if !ok {
		t.Fatalf("first unsubscribe should emit Stop")
	}

	_, ok = m.transition(types.TopicEvent{Kind: types.EventUnsubscribe, Context: "T"})
	if ok {
		t.Fatalf("second unsubscribe must not emit another Stop")
	}

	top, _ := reg.Get("T")
	if top.SubscriberCount != 0 {
		t.Fatalf("count should clamp at 0, got %d", top.SubscriberCount)
	}
}

func TestConcurrentCreateTopicProducesDistinctIDs(t *testing.T) {
	m, reg, _, cb := newTestManager()
	defer cb.Close()

	const n = 1000
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := m.CreateTopic("P1", "")
			if err != nil {
				t.Errorf("CreateTopic: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, n)
	for id := range ids {
		seen[id] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct ids, got %d", n, len(seen))
	}
	if reg.Len() != n {
		t.Fatalf("expected registry size %d, got %d", n, reg.Len())
	}
}

func TestDeleteTopicIsIdempotentAndMarksForDeletion(t *testing.T) {
	m, reg, _, cb := newTestManager()
	defer cb.Close()

	if err := reg.Insert("T", types.Topic{ID: "T"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	m.DeleteTopic("T")
	m.DeleteTopic("T")
	m.DeleteTopic("missing")

	top, ok := reg.Get("T")
	if !ok || !top.MarkedForDeletion {
		t.Fatalf("expected T marked for deletion, got %+v ok=%v", top, ok)
	}
}

// TestManageTopicRequestJSONRoundTrip sanity-checks that ManageTopicRequest
// survives encoding/json Marshal/Unmarshal (what the rpc codec wraps),
// independent of a live gRPC connection.
func TestManageTopicRequestJSONRoundTrip(t *testing.T) {
	req := rpc.ManageTopicRequest{Topic: "T", Action: string(types.ActionStart)}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out rpc.ManageTopicRequest
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != req {
		t.Fatalf("round-trip mismatch: got %+v want %+v", out, req)
	}
}
