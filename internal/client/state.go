package client

// StopReason records which trigger ended the loop.
type StopReason int

const (
	StopNone StopReason = iota
	StopGraceful
	StopAbrupt
)

func (r StopReason) String() string {
	switch r {
	case StopGraceful:
		return "graceful"
	case StopAbrupt:
		return "abrupt"
	default:
		return "none"
	}
}

// State is RUNNING until a stop trigger fires; STOPPING is terminal.
type State struct {
	reason StopReason
}

func (s State) Running() bool {
	return s.reason == StopNone
}

func (s State) Reason() StopReason {
	return s.reason
}

// stop moves to STOPPING. The first trigger wins.
func (s *State) stop(reason StopReason) {
	if s.reason == StopNone {
		s.reason = reason
	}
}
