package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func mustEvent(t *testing.T, c *Client, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-c.Events:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("client %s: expected event kind %v not received", c.ID, kind)
	return nil
}

// mustQuiet fails if c has an event queued once the hub has drained its queue.
func mustQuiet(t *testing.T, h *Hub, c *Client) {
	t.Helper()

	waitIdle(t, h)
	select {
	case ev := <-c.Events:
		t.Fatalf("client %s: unexpected event %s", c.ID, ev.Payload)
	default:
	}
}

// waitIdle waits until every command queued before the call has been processed.
// It registers a throwaway client and then unregisters it; once the loop has
// removed it again, every earlier command is done and the registry holds
// only the test's own clients.
func waitIdle(t *testing.T, h *Hub) {
	t.Helper()

	marker := NewClient("idle-marker", 1)
	if err := h.RegisterClient(context.Background(), marker); err != nil {
		t.Fatalf("register marker: %v", err)
	}
	mustEvent(t, marker, EventHistory)
	h.UnregisterClient(marker)

	deadline := time.Now().Add(2 * time.Second)
	for h.registry.Contains(marker) {
		if time.Now().After(deadline) {
			t.Fatal("hub did not process unregister")
		}
		time.Sleep(time.Millisecond)
	}
}

// startHub runs h until the test ends and waits for the loop to exit.
func startHub(t *testing.T, h *Hub) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
}

func connect(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	return connectBuffered(t, h, id, 16)
}

func connectBuffered(t *testing.T, h *Hub, id string, buffer int) *Client {
	t.Helper()

	c := NewClient(id, buffer)
	if err := h.RegisterClient(context.Background(), c); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	mustEvent(t, c, EventHistory)
	return c
}

func send(t *testing.T, h *Hub, c *Client, v any) {
	t.Helper()

	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := h.Submit(context.Background(), c, raw); err != nil {
		t.Fatalf("submit from %s: %v", c.ID, err)
	}
}

func msg(id, name, text string) map[string]any {
	return map[string]any{"type": "message", "id": id, "name": name, "text": text}
}

func heart(id string) map[string]any {
	return map[string]any{"type": "reaction", "id": id, "emoji": "heart"}
}
