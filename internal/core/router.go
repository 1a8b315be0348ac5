package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/nachochat/internal/proto"
)

// ReactionPolicy decides whether a reaction is forwarded to peers.
type ReactionPolicy string

const (
	// ForwardAlways forwards every well-formed reaction, applied or not.
	ForwardAlways ReactionPolicy = "forward-always"
	// ForwardApplied forwards a reaction only if it changed a retained message.
	ForwardApplied ReactionPolicy = "forward-applied"
)

// ParseReactionPolicy validates a policy name. Empty selects ForwardAlways.
func ParseReactionPolicy(s string) (ReactionPolicy, error) {
	switch ReactionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ForwardAlways:
		return ForwardAlways, nil
	case ForwardApplied:
		return ForwardApplied, nil
	default:
		return "", fmt.Errorf("unknown reaction policy %q", s)
	}
}

// OutcomeKind is the terminal state of routing one inbound payload.
type OutcomeKind int

const (
	// OutcomeDropped means the payload was ignored without side effects.
	OutcomeDropped OutcomeKind = iota
	// OutcomeMessage means a message was appended to history.
	OutcomeMessage
	// OutcomeReaction means a reaction was processed.
	OutcomeReaction
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMessage:
		return "message"
	case OutcomeReaction:
		return "reaction"
	default:
		return "dropped"
	}
}

// Outcome tells the hub what became of an inbound payload and what, if
// anything, to fan out to the other clients.
type Outcome struct {
	Kind      OutcomeKind
	Event     ChatEvent
	Payload   []byte
	Applied   bool
	Broadcast bool
	Reason    string // set when nothing is broadcast
	Err       error  // set for OutcomeDropped
}

// RouterOptions tunes reaction handling.
type RouterOptions struct {
	Policy ReactionPolicy
	// RecordReactions appends reaction events to history in addition to
	// folding them into the target message's counters.
	RecordReactions bool
}

// Router classifies inbound payloads and applies them to history.
// It is not safe for concurrent use; the hub calls it from its loop only.
type Router struct {
	history *History
	opts    RouterOptions
}

// NewRouter builds a router writing into history.
func NewRouter(history *History, opts RouterOptions) *Router {
	if opts.Policy == "" {
		opts.Policy = ForwardAlways
	}
	return &Router{history: history, opts: opts}
}

// Route processes one raw payload. It never returns an error to the caller:
// anything that cannot be applied becomes an OutcomeDropped.
func (r *Router) Route(raw []byte) Outcome {
	in, err := decodeInbound(raw)
	if err != nil {
		return dropped(err)
	}

	switch in.Type {
	case proto.TypeMessage:
		return r.routeMessage(in)
	case proto.TypeReaction:
		return r.routeReaction(in)
	default:
		return dropped(fmt.Errorf("%w: %q", ErrUnknownType, in.Type))
	}
}

func (r *Router) routeMessage(in proto.Inbound) Outcome {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return dropped(ErrEmptyText)
	}

	// A supplied id is kept verbatim; the sender already renders under it.
	id := in.ID
	if strings.TrimSpace(id) == "" {
		id = r.history.NewMessageID()
	}

	ev := MessageEvent(NewMessage(id, strings.TrimSpace(in.Name), text))
	if err := r.history.Append(ev); err != nil {
		return dropped(err)
	}

	payload, err := EncodeChatEvent(ev)
	if err != nil {
		return dropped(err)
	}

	return Outcome{
		Kind:      OutcomeMessage,
		Event:     ev,
		Payload:   payload,
		Broadcast: true,
	}
}

func (r *Router) routeReaction(in proto.Inbound) Outcome {
	target := in.ID
	kind := ReactionKind(strings.TrimSpace(in.Emoji))
	if strings.TrimSpace(target) == "" || kind == "" {
		return dropped(ErrMissingTarget)
	}

	ev := ReactionEvent(Reaction{TargetID: target, Kind: kind})
	applied := r.history.ApplyReaction(target, kind)
	if applied && r.opts.RecordReactions {
		// A reaction event never collides with the message index.
		_ = r.history.Append(ev)
	}

	out := Outcome{
		Kind:    OutcomeReaction,
		Event:   ev,
		Applied: applied,
	}
	if !applied && r.opts.Policy == ForwardApplied {
		out.Reason = DropNotApplied
		return out
	}

	payload, err := EncodeChatEvent(ev)
	if err != nil {
		return dropped(err)
	}
	out.Payload = payload
	out.Broadcast = true
	return out
}

func dropped(err error) Outcome {
	if err == nil {
		err = errors.New("dropped")
	}
	return Outcome{
		Kind:   OutcomeDropped,
		Reason: dropReason(err),
		Err:    err,
	}
}
