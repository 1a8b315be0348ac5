package core

import (
	"context"

	"github.com/rs/zerolog"
)

// HubOptions configures a Hub. Zero values select defaults.
type HubOptions struct {
	HistoryLimit    int
	ReactionPolicy  ReactionPolicy
	RecordReactions bool
	QueueSize       int
	Logger          *zerolog.Logger
	Recorder        Recorder
}

// Hub owns the shared chat state and coordinates every connected client.
// A single loop processes registrations and inbound payloads in arrival
// order, so events from one client are applied and fanned out in the order
// that client sent them, and a replay always precedes later broadcasts.
type Hub struct {
	history  *History
	registry *Registry
	router   *Router
	commands chan Command
	done     chan struct{}
	log      *zerolog.Logger
	rec      Recorder
}

// NewHub creates a new chat hub instance.
func NewHub(opts HubOptions) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	history := NewHistory(opts.HistoryLimit)
	return &Hub{
		history:  history,
		registry: NewRegistry(),
		router: NewRouter(history, RouterOptions{
			Policy:          opts.ReactionPolicy,
			RecordReactions: opts.RecordReactions,
		}),
		commands: make(chan Command, opts.QueueSize),
		done:     make(chan struct{}),
		log:      opts.Logger,
		rec:      opts.Recorder,
	}
}

// History exposes the hub's history store.
func (h *Hub) History() *History {
	return h.history
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	return h.registry.Len()
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RegisterClient queues c for registration. The client's first event will be
// the history replay.
func (h *Hub) RegisterClient(ctx context.Context, c *Client) error {
	return h.enqueue(ctx, Command{Kind: CommandRegister, Client: c})
}

// UnregisterClient queues c for removal. It does not block once the hub has stopped.
func (h *Hub) UnregisterClient(c *Client) {
	c.Close()
	_ = h.enqueue(context.Background(), Command{Kind: CommandUnregister, Client: c})
}

// Submit queues a raw payload received from c.
func (h *Hub) Submit(ctx context.Context, c *Client, payload []byte) error {
	return h.enqueue(ctx, Command{Kind: CommandInbound, Client: c, Payload: payload})
}

func (h *Hub) enqueue(ctx context.Context, cmd Command) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.commands <- cmd:
		select {
		case <-h.done:
			// Queued after the loop stopped draining; nothing will process it.
			h.discard(cmd)
			return ErrHubClosed
		default:
		}
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands until ctx is cancelled. Every client still
// registered or waiting in the queue at that point is closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case cmd := <-h.commands:
			h.handle(cmd)
		}
	}
}

func (h *Hub) handle(cmd Command) {
	if cmd.Client == nil {
		h.log.Warn().Msg("command without client; skipping")
		return
	}

	switch cmd.Kind {
	case CommandRegister:
		h.register(cmd.Client)
	case CommandUnregister:
		h.unregister(cmd.Client)
	case CommandInbound:
		h.inbound(cmd.Client, cmd.Payload)
	}
}

func (h *Hub) register(c *Client) {
	if c.Closed() {
		return
	}
	if !h.registry.Register(c) {
		return
	}
	h.rec.ClientConnected()

	snapshot := h.history.Snapshot()
	payload, err := EncodeHistory(snapshot)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", c.ID).Msg("encode history")
		return
	}
	if err := c.deliver(&Event{Kind: EventHistory, History: snapshot, Payload: payload}); err != nil {
		h.drop(c, err)
		return
	}

	h.log.Info().
		Str("client_id", c.ID).
		Int("history", len(snapshot)).
		Int("clients", h.registry.Len()).
		Msg("client registered")
}

func (h *Hub) unregister(c *Client) {
	c.Close()
	if !h.registry.Unregister(c) {
		return
	}
	h.rec.ClientDisconnected()
	h.log.Info().
		Str("client_id", c.ID).
		Int("clients", h.registry.Len()).
		Msg("client unregistered")
}

func (h *Hub) inbound(origin *Client, payload []byte) {
	out := h.router.Route(payload)
	h.rec.Routed(out.Kind.String(), out.Reason)

	if out.Kind == OutcomeDropped {
		h.log.Debug().
			Err(out.Err).
			Str("client_id", origin.ID).
			Str("reason", out.Reason).
			Msg("inbound payload dropped")
		return
	}
	if out.Applied {
		h.rec.ReactionApplied()
	}
	h.rec.HistorySize(h.history.Len())

	if !out.Broadcast {
		h.log.Debug().
			Str("client_id", origin.ID).
			Str("reason", out.Reason).
			Msg("reaction not forwarded")
		return
	}

	h.broadcast(origin, &Event{Kind: EventChat, Chat: out.Event, Payload: out.Payload})
}

// broadcast fans ev out to every client except origin. A client that cannot
// take the event is dropped; the rest still receive it.
func (h *Hub) broadcast(origin *Client, ev *Event) {
	errs := make(map[*Client]error)
	failed := h.registry.ForEachExcept(origin, func(c *Client) error {
		err := c.deliver(ev)
		if err != nil {
			errs[c] = err
		}
		return err
	})
	for _, c := range failed {
		h.drop(c, errs[c])
	}
}

func (h *Hub) drop(c *Client, err error) {
	h.rec.DeliveryDropped()
	h.log.Warn().Err(err).Str("client_id", c.ID).Msg("dropping unwritable client")
	c.Close()
	if h.registry.Unregister(c) {
		h.rec.ClientDisconnected()
	}
}

func (h *Hub) shutdown() {
	clients := h.registry.Drain()
	for _, c := range clients {
		c.Close()
		h.rec.ClientDisconnected()
	}

	// done is closed before the queue is drained: a send that lands after
	// this drain sees done closed in enqueue and discards itself.
	close(h.done)
	pending := 0
	for {
		select {
		case cmd := <-h.commands:
			h.discard(cmd)
			pending++
		default:
			h.log.Info().Int("clients", len(clients)).Int("pending", pending).Msg("hub stopped")
			return
		}
	}
}

// discard closes the client of a command that will never be processed.
func (h *Hub) discard(cmd Command) {
	if cmd.Client != nil {
		cmd.Client.Close()
	}
}
