package core

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/nachochat/internal/proto"
)

func decodeInbound(raw []byte) (proto.Inbound, error) {
	var in proto.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return proto.Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return in, nil
}

func wireFromChatEvent(ev ChatEvent) any {
	switch ev.Kind {
	case ChatReaction:
		return proto.Reaction{
			Type:  proto.TypeReaction,
			ID:    ev.Reaction.TargetID,
			Emoji: string(ev.Reaction.Kind),
		}
	default:
		reactions := make(map[string]int, len(SupportedReactions))
		for _, k := range SupportedReactions {
			reactions[string(k)] = ev.Message.Reactions[k]
		}
		return proto.Message{
			Type:      proto.TypeMessage,
			ID:        ev.Message.ID,
			Name:      ev.Message.Author,
			Text:      ev.Message.Text,
			Reactions: reactions,
		}
	}
}

// EncodeChatEvent returns the wire encoding of a single message or reaction.
func EncodeChatEvent(ev ChatEvent) ([]byte, error) {
	data, err := json.Marshal(wireFromChatEvent(ev))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return data, nil
}

// EncodeHistory returns the wire encoding of a history replay.
func EncodeHistory(events []ChatEvent) ([]byte, error) {
	out := proto.History{
		Type: proto.TypeHistory,
		Data: make([]any, 0, len(events)),
	}
	for _, ev := range events {
		out.Data = append(out.Data, wireFromChatEvent(ev))
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return data, nil
}
