package proto

const (
	TypeHistory  = "history"
	TypeMessage  = "message"
	TypeReaction = "reaction"

	EmojiHeart = "heart"
)

// Inbound is any frame a client may send. Which fields matter depends on Type.
type Inbound struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

// Message is a chat message as it travels over the wire.
// Reactions is always populated by the server on outbound messages.
type Message struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Text      string         `json:"text"`
	Reactions map[string]int `json:"reactions,omitempty"`
}

// Reaction attaches an emoji to the message with the given ID.
type Reaction struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Emoji string `json:"emoji"`
}

// History replays retained messages and reactions, oldest first.
// Each element of Data is a Message or a Reaction.
type History struct {
	Type string `json:"type"`
	Data []any  `json:"data"`
}

// Frame decodes any server frame. Fields that do not apply to Type stay zero;
// Data is set for history frames only.
type Frame struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Text      string         `json:"text"`
	Emoji     string         `json:"emoji"`
	Reactions map[string]int `json:"reactions"`
	Data      []Frame        `json:"data"`
}
