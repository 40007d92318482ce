package bench

import "time"

// DefaultProgressStride is the number of iterations between two OnProgress
// calls when Task.ProgressStride is not set.
const DefaultProgressStride int64 = 1 << 20

// StopReason tells why a Task returned.
type StopReason int

const (
	// Completed means the whole range was iterated.
	Completed StopReason = iota
	// Stopped means the stop predicate reported true.
	Stopped
	// DeadlineExceeded means the shared deadline passed.
	DeadlineExceeded
)

// String returns a lowercase name for the reason.
func (r StopReason) String() string {
	switch r {
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case DeadlineExceeded:
		return "deadline"
	default:
		return "unknown"
	}
}

// Outcome summarizes a Task run.
type Outcome struct {
	// Processed is the number of values of the range that were examined.
	Processed int64
	// Reason is why the loop ended.
	Reason StopReason
}

// Task counts the even numbers of [Begin, End).
type Task struct {
	Begin    int64
	End      int64
	Deadline Deadline
	// Stop is polled before each value. Nil never stops.
	Stop StopFunc
	// OnProgress, when set, receives the processed count every
	// ProgressStride iterations and once more when the task returns.
	OnProgress     func(processed int64)
	ProgressStride int64
}

// Run iterates the range, appending even values to c.
//
// The stop predicate is checked before a value is examined, and the deadline
// after it, so a deadline already in the past lets exactly one value through.
func (t Task) Run(c Collector) Outcome {
	stop := t.Stop
	if stop == nil {
		stop = Never
	}
	stride := t.ProgressStride
	if stride <= 0 {
		stride = DefaultProgressStride
	}
	timed := t.Deadline.IsSet()

	n := t.Begin
	reason := Completed
	for n < t.End {
		if stop() {
			reason = Stopped
			break
		}
		if n%2 == 0 {
			c.Append(n)
		}
		n++
		if t.OnProgress != nil && (n-t.Begin)%stride == 0 {
			t.OnProgress(n - t.Begin)
		}
		if timed && t.Deadline.Exceeded(time.Now()) {
			reason = DeadlineExceeded
			break
		}
	}

	processed := n - t.Begin
	if processed < 0 {
		processed = 0
	}
	if t.OnProgress != nil {
		t.OnProgress(processed)
	}
	return Outcome{Processed: processed, Reason: reason}
}

// Count runs the counting task over [begin, end) without progress reporting.
func Count(begin, end int64, c Collector, deadline Deadline, stop StopFunc) Outcome {
	return Task{Begin: begin, End: end, Deadline: deadline, Stop: stop}.Run(c)
}
