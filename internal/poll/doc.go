// Package poll owns the bounded readiness wait of the event loop.
//
// The interest set is fixed at construction: the network descriptor and the
// interactive input descriptor. An internal wake descriptor lets an
// asynchronous interrupt end a wait early; such a wake is reported as
// ErrInterrupted, the same as a signal-interrupted wait.
package poll

import (
	"errors"
	"time"
)

var (
	ErrInterrupted = errors.New("poll: wait interrupted")
	ErrClosed      = errors.New("poll: poller closed")
)

// Readiness reports which descriptors of the interest set are readable.
type Readiness struct {
	Network bool
	Input   bool
}

// Any reports whether at least one descriptor is ready.
func (r Readiness) Any() bool {
	return r.Network || r.Input
}

func timeoutMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
