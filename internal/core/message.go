package core

// ReactionKind names a reaction a participant can attach to a message.
type ReactionKind string

const (
	// ReactionHeart is the only reaction kind the server counts.
	ReactionHeart ReactionKind = "heart"
)

// SupportedReactions lists every kind a message keeps a counter for.
var SupportedReactions = []ReactionKind{ReactionHeart}

// Supported reports whether the server keeps a counter for k.
func (k ReactionKind) Supported() bool {
	for _, s := range SupportedReactions {
		if s == k {
			return true
		}
	}
	return false
}

// DefaultAuthor is used when a message arrives without a display name.
const DefaultAuthor = "Anon"

// Message is the domain model for a chat message.
type Message struct {
	ID        string
	Author    string
	Text      string
	Reactions map[ReactionKind]int
}

// NewMessage builds a message with zeroed counters for every supported reaction.
func NewMessage(id, author, text string) Message {
	if author == "" {
		author = DefaultAuthor
	}
	reactions := make(map[ReactionKind]int, len(SupportedReactions))
	for _, k := range SupportedReactions {
		reactions[k] = 0
	}
	return Message{ID: id, Author: author, Text: text, Reactions: reactions}
}

func (m Message) clone() Message {
	out := m
	out.Reactions = make(map[ReactionKind]int, len(m.Reactions))
	for k, v := range m.Reactions {
		out.Reactions[k] = v
	}
	return out
}

// Reaction targets a previously sent message.
type Reaction struct {
	TargetID string
	Kind     ReactionKind
}

// ChatEventKind tells which variant a ChatEvent holds.
type ChatEventKind int

const (
	// ChatMessage holds a Message.
	ChatMessage ChatEventKind = iota
	// ChatReaction holds a Reaction.
	ChatReaction
)

func (k ChatEventKind) String() string {
	switch k {
	case ChatMessage:
		return "message"
	case ChatReaction:
		return "reaction"
	default:
		return "unknown"
	}
}

// ChatEvent is a unit of chat activity kept in history and fanned out to peers.
// Only the field matching Kind is meaningful.
type ChatEvent struct {
	Kind     ChatEventKind
	Message  Message
	Reaction Reaction
}

// MessageEvent wraps m as a ChatEvent.
func MessageEvent(m Message) ChatEvent {
	return ChatEvent{Kind: ChatMessage, Message: m}
}

// ReactionEvent wraps r as a ChatEvent.
func ReactionEvent(r Reaction) ChatEvent {
	return ChatEvent{Kind: ChatReaction, Reaction: r}
}

func (e ChatEvent) clone() ChatEvent {
	if e.Kind == ChatMessage {
		e.Message = e.Message.clone()
	}
	return e
}
