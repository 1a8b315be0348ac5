package core

import "sync"

// Registry tracks the currently connected clients.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[*Client]struct{}),
	}
}

// Register inserts a client. Returns true if newly added.
func (r *Registry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// Unregister deletes a client. Returns true if removed.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Contains reports whether c is registered.
func (r *Registry) Contains(c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.clients[c]
	return ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// ForEachExcept calls fn for every registered client other than origin.
// Closed clients are skipped. A failing fn does not stop the iteration;
// the clients it failed for are returned so the caller can drop them.
func (r *Registry) ForEachExcept(origin *Client, fn func(*Client) error) []*Client {
	var failed []*Client
	for _, c := range r.snapshot() {
		if c == origin || c.Closed() {
			continue
		}
		if err := fn(c); err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Drain removes and returns every registered client.
func (r *Registry) Drain() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[*Client]struct{})
	return clients
}

func (r *Registry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}
