package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/websocket"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, ch Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, ch)
	return p.err
}

func TestFeed_ChangedDeliversFullSnapshot(t *testing.T) {
	f := New(zerolog.Nop())
	store := []string{"a"}
	f.Register("patients", TypedLoader(func(context.Context) ([]string, error) {
		return append([]string(nil), store...), nil
	}))

	var cache Cache[string]
	if err := Bind(f, "patients", &cache); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, ready := cache.Items(); ready {
		t.Fatal("cache must not be ready before the first snapshot")
	}

	store = append(store, "b")
	f.Changed(context.Background(), "patients", "b", ActionUpsert)

	items, ready := cache.Items()
	if !ready {
		t.Fatal("expected cache ready")
	}
	if len(items) != 2 || items[1] != "b" {
		t.Fatalf("expected full snapshot [a b], got %v", items)
	}
}

func TestFeed_LoadErrorSettlesCache(t *testing.T) {
	f := New(zerolog.Nop())
	fail := false
	f.Register("requests", TypedLoader(func(context.Context) ([]int, error) {
		if fail {
			return nil, errors.New("store unavailable")
		}
		return []int{1, 2, 3}, nil
	}))
	pub := &recordingPublisher{}
	f.AddPublisher(pub)

	var cache Cache[int]
	_ = Bind(f, "requests", &cache)

	f.Prime(context.Background())
	fail = true
	f.Changed(context.Background(), "requests", "x", ActionUpsert)

	items, ready := cache.Items()
	if !ready {
		t.Fatal("cache must settle after an error")
	}
	if cache.Err() == nil {
		t.Fatal("expected cache error")
	}
	if len(items) != 3 {
		t.Fatalf("previous items must be kept, got %v", items)
	}
	if len(pub.changes) != 1 {
		t.Fatalf("failed loads must not be published, got %d changes", len(pub.changes))
	}

	fail = false
	f.Changed(context.Background(), "requests", "x", ActionUpsert)
	if cache.Err() != nil {
		t.Fatalf("error should clear on the next good snapshot: %v", cache.Err())
	}
}

func TestFeed_PublisherErrorDoesNotStopOthers(t *testing.T) {
	f := New(zerolog.Nop())
	f.Register("patients", TypedLoader(func(context.Context) ([]string, error) { return nil, nil }))
	bad := &recordingPublisher{err: errors.New("down")}
	good := &recordingPublisher{}
	f.AddPublisher(bad)
	f.AddPublisher(good)

	f.Changed(context.Background(), "patients", "p1", ActionDelete)

	if len(good.changes) != 1 {
		t.Fatalf("expected good publisher to receive change, got %d", len(good.changes))
	}
	ch := good.changes[0]
	if ch.Collection != "patients" || ch.ID != "p1" || ch.Action != ActionDelete {
		t.Fatalf("unexpected change: %+v", ch)
	}
	if snap, ok := ch.Snapshot.([]string); !ok || snap == nil {
		t.Fatalf("expected non-nil empty snapshot, got %#v", ch.Snapshot)
	}
}

func TestFeed_UnknownCollection(t *testing.T) {
	f := New(zerolog.Nop())
	if err := f.Subscribe("nope", func(interface{}, error) {}); err == nil {
		t.Fatal("expected error subscribing to unknown collection")
	}
	if _, err := f.Snapshot(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown snapshot")
	}
	// Must not panic.
	f.Changed(context.Background(), "nope", "x", ActionUpsert)
}

func TestCache_UnexpectedSnapshotType(t *testing.T) {
	var c Cache[string]
	c.deliver([]int{1}, nil)
	if c.Err() == nil {
		t.Fatal("expected type error")
	}
}

func TestDiscard(t *testing.T) {
	Discard.Changed(context.Background(), "patients", "p", ActionUpsert)
}

type fakeEventPublisher struct {
	events []websocket.Event
}

func (f *fakeEventPublisher) Publish(_ context.Context, ev websocket.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func TestHubPublisher(t *testing.T) {
	fake := &fakeEventPublisher{}
	p := NewHubPublisher(fake)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Change{Collection: "requests", ID: "r1", Action: ActionComplete, Snapshot: []string{"r1"}, At: at})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(fake.events))
	}
	ev := fake.events[0]
	if ev.Type != websocket.EventSnapshot || ev.Topic != "requests" || ev.Action != "complete" || !ev.Timestamp.Equal(at) {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if string(ev.Data) != `["r1"]` {
		t.Fatalf("unexpected data: %s", ev.Data)
	}
}

type fakeConn struct {
	subject string
	data    []byte
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return nil
}

func TestNATSPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "clinic")

	err := p.Publish(context.Background(), Change{Collection: "patients", ID: "P-1", Action: ActionUpsert, Snapshot: []int{1, 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.subject != "clinic.patients.changed" {
		t.Fatalf("unexpected subject: %s", conn.subject)
	}
	var msg natsMessage
	if err := json.Unmarshal(conn.data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.ID != "P-1" || msg.Count != 2 || msg.Action != ActionUpsert {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNATSPublisher_CancelledContext(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Publish(ctx, Change{Collection: "requests"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if conn.subject != "" {
		t.Fatal("nothing should be published")
	}
	if p.Subject("requests") != "dentx.requests.changed" {
		t.Fatalf("unexpected default subject: %s", p.Subject("requests"))
	}
}
