package core

import "errors"

// Drop reasons reported for inbound payloads that never reach history.
const (
	DropMalformed     = "malformed"
	DropUnknownType   = "unknown_type"
	DropEmptyText     = "empty_text"
	DropMissingTarget = "missing_target"
	DropDuplicateID   = "duplicate_id"
	DropNotApplied    = "not_applied"
)

var (
	ErrMalformed     = errors.New("malformed payload")
	ErrUnknownType   = errors.New("unknown event type")
	ErrEmptyText     = errors.New("message text is empty")
	ErrMissingTarget = errors.New("reaction target is missing")
	ErrDuplicateID   = errors.New("message id already in history")
	ErrSlowConsumer  = errors.New("client buffer full")
	ErrClientClosed  = errors.New("client closed")
	ErrHubClosed     = errors.New("hub stopped")
)

// dropReason maps a routing error to the reason label used in logs and metrics.
func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return DropUnknownType
	case errors.Is(err, ErrEmptyText):
		return DropEmptyText
	case errors.Is(err, ErrMissingTarget):
		return DropMissingTarget
	case errors.Is(err, ErrDuplicateID):
		return DropDuplicateID
	default:
		return DropMalformed
	}
}
