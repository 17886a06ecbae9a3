package stream

// ConnectionState is the lifecycle of the transport.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Closed
)

// String returns the lower-case state name.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// AnalysisState is the lifecycle of the current request.
type AnalysisState int

const (
	Idle AnalysisState = iota
	Streaming
	Completed
	Failed
)

// String returns the lower-case state name.
func (s AnalysisState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a request.
func (s AnalysisState) Terminal() bool {
	return s == Completed || s == Failed
}
