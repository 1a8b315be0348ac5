package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHistory delivers the history snapshot to a newly connected client.
	EventHistory EventKind = iota
	// EventChat relays a message or reaction from another participant.
	EventChat
)

// Event is sent to clients to describe what happened in the system.
// Payload is the wire encoding, serialized once and shared by every recipient.
type Event struct {
	Kind    EventKind
	Chat    ChatEvent   // For EventChat
	History []ChatEvent // For EventHistory
	Payload []byte
}
