package capture

// State is a Controller state.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateSubmitting
	StateInterpreting
	StateRetryScheduled
	StateErrorIdle
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateSubmitting:
		return "submitting"
	case StateInterpreting:
		return "interpreting"
	case StateRetryScheduled:
		return "retry_scheduled"
	case StateErrorIdle:
		return "error_idle"
	default:
		return "unknown"
	}
}

// busy reports whether a cycle is between Capturing and Interpreting.
func (s State) busy() bool {
	return s == StateCapturing || s == StateSubmitting || s == StateInterpreting
}
