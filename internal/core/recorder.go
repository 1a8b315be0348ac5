package core

// Recorder receives hub activity for metrics. Implementations must be safe
// for concurrent use.
type Recorder interface {
	ClientConnected()
	ClientDisconnected()
	Routed(outcome, reason string)
	ReactionApplied()
	DeliveryDropped()
	HistorySize(n int)
}

type nopRecorder struct{}

func (nopRecorder) ClientConnected()      {}
func (nopRecorder) ClientDisconnected()   {}
func (nopRecorder) Routed(string, string) {}
func (nopRecorder) ReactionApplied()      {}
func (nopRecorder) DeliveryDropped()      {}
func (nopRecorder) HistorySize(int)       {}
