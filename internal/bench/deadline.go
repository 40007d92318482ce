package bench

import "time"

// Deadline is the shared instant after which workers stop early.
// The zero value means the run is unbounded.
type Deadline struct {
	at time.Time
}

// NewDeadline returns start+timeout, or the zero Deadline when timeout is
// not positive.
func NewDeadline(start time.Time, timeout time.Duration) Deadline {
	if timeout <= 0 {
		return Deadline{}
	}
	return Deadline{at: start.Add(timeout)}
}

// DeadlineFromUnixNano rebuilds a Deadline sent across a process boundary.
// Zero yields the unbounded Deadline.
func DeadlineFromUnixNano(ns int64) Deadline {
	if ns == 0 {
		return Deadline{}
	}
	return Deadline{at: time.Unix(0, ns)}
}

// IsSet reports whether the deadline bounds the run.
func (d Deadline) IsSet() bool {
	return !d.at.IsZero()
}

// Exceeded reports whether now is past the deadline. Always false when unset.
func (d Deadline) Exceeded(now time.Time) bool {
	return d.IsSet() && now.After(d.at)
}

// Time returns the deadline instant (zero when unset).
func (d Deadline) Time() time.Time {
	return d.at
}

// UnixNano returns the deadline as Unix nanoseconds, 0 when unset.
func (d Deadline) UnixNano() int64 {
	if !d.IsSet() {
		return 0
	}
	return d.at.UnixNano()
}
