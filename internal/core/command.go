package core

// CommandKind describes what a session asks the hub to do.
type CommandKind int

const (
	// CommandRegister adds a client and replays history to it.
	CommandRegister CommandKind = iota
	// CommandUnregister removes a client.
	CommandUnregister
	// CommandInbound routes a raw payload received from a client.
	CommandInbound
)

// Command is queued to the hub loop. Commands are processed strictly in
// the order they were queued.
type Command struct {
	Kind    CommandKind
	Client  *Client
	Payload []byte
}
