package preview

// State is the render retry state of a session.
type State int

const (
	StateIdle State = iota
	StateRendering
	// StateRetryPending means one render failed and a retry is queued.
	StateRetryPending
	StateRetrying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StateRetryPending:
		return "retry-pending"
	case StateRetrying:
		return "retrying"
	default:
		return "unknown"
	}
}
