package websocket

import (
	"sync"
	"testing"
	"time"
)

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub()
	client := newClient("client-1", "vitals", newFakeConn(), time.Now())

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.FeedCount("vitals") != 1 {
		t.Fatalf("expected 1 client on vitals, got %d", hub.FeedCount("vitals"))
	}
	if hub.FeedCount("medications") != 0 {
		t.Fatalf("expected 0 clients on medications, got %d", hub.FeedCount("medications"))
	}
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newClient("client-2", "medications", newFakeConn(), time.Now())

	hub.Register(client)
	if !hub.Unregister(client) {
		t.Fatal("expected first unregister to report true")
	}
	if hub.Unregister(client) {
		t.Fatal("expected second unregister to report false")
	}

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.FeedCount("medications") != 0 {
		t.Fatalf("expected 0 clients on medications, got %d", hub.FeedCount("medications"))
	}
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	a, b := newFakeConn(), newFakeConn()
	hub.Register(newClient("a", "vitals", a, time.Now()))
	hub.Register(newClient("b", "medications", b, time.Now()))

	hub.CloseAll()

	if !a.isClosed() || !b.isClosed() {
		t.Error("expected all connections closed")
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newClient("c", "vitals", newFakeConn(), time.Now())
			hub.Register(c)
			_ = hub.FeedCount("vitals")
			_ = hub.ClientCount()
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestClient_EnqueueDropsWhenFull(t *testing.T) {
	c := newClient("c", "vitals", newFakeConn(), time.Now())
	for i := 0; i < cap(c.send); i++ {
		if !c.enqueue(frame{messageType: 1, data: []byte("x")}) {
			t.Fatalf("enqueue %d unexpectedly dropped", i)
		}
	}
	if c.enqueue(frame{messageType: 1, data: []byte("overflow")}) {
		t.Error("expected enqueue to drop when buffer is full")
	}
}

func TestClient_Touch(t *testing.T) {
	start := time.Date(2024, 1, 13, 8, 0, 0, 0, time.UTC)
	c := newClient("c", "vitals", newFakeConn(), start)
	if !c.LastSeen().Equal(start) {
		t.Errorf("expected %v, got %v", start, c.LastSeen())
	}
	later := start.Add(time.Minute)
	c.touch(later)
	if !c.LastSeen().Equal(later) {
		t.Errorf("expected %v, got %v", later, c.LastSeen())
	}
}
