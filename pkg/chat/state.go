package chat

// StreamState tracks the lifecycle of the single in-flight stream a client
// instance may hold
type StreamState int

const (
	StateIdle StreamState = iota
	StateSending
	StateStreaming
	StateFinalizing
	StateCancelled
	StateErrored
)

// String returns the string representation of the stream state
func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// CanSend reports whether a new send may start in this state
func (s StreamState) CanSend() bool {
	return s == StateIdle || s == StateCancelled || s == StateErrored
}

// Active reports whether a stream is currently in flight
func (s StreamState) Active() bool {
	return s == StateSending || s == StateStreaming || s == StateFinalizing
}
