package core

import (
	"sync"
	"sync/atomic"
)

// DefaultClientBuffer is the outbound queue depth for a client.
const DefaultClientBuffer = 64

// Client is a connected participant as seen by the core layer.
// The transport drains Events and watches Done to learn that the hub dropped it.
type Client struct {
	ID     string
	Events chan *Event

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewClient constructs a client with an outbound queue of the given depth.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
		done:   make(chan struct{}),
	}
}

// Done is closed once the client is no longer writable.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Closed reports whether the client was closed by either side.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close marks the client unwritable. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}

// deliver queues ev without blocking. Events is never closed, so a late
// delivery to a client that is going away cannot panic.
func (c *Client) deliver(ev *Event) error {
	if c.Closed() {
		return ErrClientClosed
	}
	select {
	case c.Events <- ev:
		return nil
	default:
		return ErrSlowConsumer
	}
}
