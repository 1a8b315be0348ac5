package core

import (
	"fmt"
	"sync"

	"github.com/vovakirdan/nachochat/internal/utils"
)

// DefaultHistoryLimit is how many events the history retains unless configured otherwise.
const DefaultHistoryLimit = 200

// History is a bounded, append-only log of chat events.
// Entries are evicted oldest-first once the limit is reached.
// All access goes through the store's mutex; callers only ever see copies.
type History struct {
	mu    sync.Mutex
	limit int
	buf   []ChatEvent
	first uint64 // sequence number of the oldest retained event
	next  uint64 // sequence number the next append receives
	index map[string]uint64
}

// NewHistory creates an empty history retaining at most limit events.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		limit: limit,
		buf:   make([]ChatEvent, limit),
		index: make(map[string]uint64),
	}
}

// Limit returns the retention bound.
func (h *History) Limit() int {
	return h.limit
}

// Len returns the number of retained events.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int(h.next - h.first)
}

// NewMessageID returns a fresh identifier for a message that arrived without one.
func (h *History) NewMessageID() string {
	return utils.NewID()
}

// Append adds ev at the tail, evicting the oldest event when the log is full.
// A message whose ID is already retained is rejected with ErrDuplicateID.
func (h *History) Append(ev ChatEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ev.Kind == ChatMessage {
		if _, exists := h.index[ev.Message.ID]; exists {
			return fmt.Errorf("append %q: %w", ev.Message.ID, ErrDuplicateID)
		}
	}

	if int(h.next-h.first) == h.limit {
		h.evictOldest()
	}

	ev = ev.clone()
	h.buf[h.slot(h.next)] = ev
	if ev.Kind == ChatMessage {
		h.index[ev.Message.ID] = h.next
	}
	h.next++
	return nil
}

// FindMessage returns a copy of the retained message with the given id.
func (h *History) FindMessage(id string) (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seq, ok := h.index[id]
	if !ok {
		return Message{}, false
	}
	return h.buf[h.slot(seq)].Message.clone(), true
}

// ApplyReaction increments the counter for kind on the target message.
// It reports false, without mutating anything, when the target is not retained
// or the kind is not supported.
func (h *History) ApplyReaction(targetID string, kind ReactionKind) bool {
	if !kind.Supported() {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seq, ok := h.index[targetID]
	if !ok {
		return false
	}
	msg := &h.buf[h.slot(seq)].Message
	if msg.Reactions == nil {
		msg.Reactions = make(map[ReactionKind]int, len(SupportedReactions))
	}
	msg.Reactions[kind]++
	return true
}

// Snapshot returns the retained events oldest first, as of a single point in time.
func (h *History) Snapshot() []ChatEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ChatEvent, 0, h.next-h.first)
	for seq := h.first; seq < h.next; seq++ {
		out = append(out, h.buf[h.slot(seq)].clone())
	}
	return out
}

func (h *History) slot(seq uint64) int {
	return int(seq % uint64(h.limit))
}

func (h *History) evictOldest() {
	idx := h.slot(h.first)
	old := h.buf[idx]
	if old.Kind == ChatMessage {
		if seq, ok := h.index[old.Message.ID]; ok && seq == h.first {
			delete(h.index, old.Message.ID)
		}
	}
	h.buf[idx] = ChatEvent{}
	h.first++
}
