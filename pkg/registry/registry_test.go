package registry

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/topicgate/pkg/types"
)

func TestInsertAndGet(t *testing.T) {
	r := New()

	err := r.Insert("T1", types.Topic{OwnerPublisherID: "P1", LastActionAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.Get("T1")
	if !ok {
		t.Fatal("expected topic to exist")
	}
	if got.OwnerPublisherID != "P1" {
		t.Errorf("expected owner P1, got %q", got.OwnerPublisherID)
	}
}

func TestInsertDuplicateFails(t *testing.T) {
	r := New()
	if err := r.Insert("T1", types.Topic{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Insert("T1", types.Topic{}); err != ErrExists {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	r := New()
	_ = r.Insert("T1", types.Topic{})

	removed, ok := r.Remove("T1")
	if !ok {
		t.Fatal("expected removal to report an existing entry")
	}
	if removed.ID != "T1" {
		t.Errorf("expected removed id T1, got %q", removed.ID)
	}

	if _, ok := r.Get("T1"); ok {
		t.Error("expected topic to be gone after Remove")
	}

	if _, ok := r.Remove("T1"); ok {
		t.Error("expected second Remove to report no entry")
	}
}

func TestMutateClampsBelowZero(t *testing.T) {
	r := New()
	_ = r.Insert("T1", types.Topic{SubscriberCount: 0})

	r.Mutate("T1", func(tp types.Topic, exists bool) (types.Topic, bool) {
		if tp.SubscriberCount > 0 {
			tp.SubscriberCount--
		}
		return tp, true
	})

	got, _ := r.Get("T1")
	if got.SubscriberCount != 0 {
		t.Errorf("expected count clamped to 0, got %d", got.SubscriberCount)
	}
}

func TestMutateOnMissingCanInsertPlaceholder(t *testing.T) {
	r := New()

	r.Mutate("T-placeholder", func(tp types.Topic, exists bool) (types.Topic, bool) {
		if exists {
			t.Fatal("expected no existing entry")
		}
		return types.Topic{OwnerPublisherID: "", SubscriberCount: 1}, true
	})

	got, ok := r.Get("T-placeholder")
	if !ok {
		t.Fatal("expected placeholder to be inserted")
	}
	if got.SubscriberCount != 1 || got.OwnerPublisherID != "" {
		t.Errorf("unexpected placeholder state: %+v", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	_ = r.Insert("T1", types.Topic{SubscriberCount: 1})

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 entry in snapshot, got %d", len(snap))
	}

	snap[0].SubscriberCount = 99
	got, _ := r.Get("T1")
	if got.SubscriberCount != 1 {
		t.Errorf("mutating the snapshot must not affect the registry, got count %d", got.SubscriberCount)
	}
}

func TestConcurrentInsertsAreLinearizable(t *testing.T) {
	r := New()
	const n = 1000

	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = "topic-" + strconv.Itoa(i)
	}

	wg.Add(n)
	for i := 0; i < n; i++ {
		id := ids[i]
		go func() {
			defer wg.Done()
			_ = r.Insert(id, types.Topic{})
		}()
	}
	wg.Wait()

	if r.Len() != n {
		t.Errorf("expected %d distinct topics, got %d", n, r.Len())
	}
}
