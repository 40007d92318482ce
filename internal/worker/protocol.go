package worker

import (
	"encoding/json"
	"fmt"

	"github.com/agbru/parbench/internal/bench"
)

// SpecEnv is the environment variable that turns a re-executed binary into
// a worker child. It holds a JSON-encoded ChildSpec.
const SpecEnv = "PARBENCH_WORKER_SPEC"

// ChildSpec is the assignment sent to a child process.
type ChildSpec struct {
	ID               int    `json:"id"`
	Begin            int64  `json:"begin"`
	End              int64  `json:"end"`
	DeadlineUnixNano int64  `json:"deadline_unix_nano,omitempty"`
	ProgressStride   int64  `json:"progress_stride,omitempty"`
	LogLevel         string `json:"log_level,omitempty"`
}

func newChildSpec(spec Spec, opts options) ChildSpec {
	return ChildSpec{
		ID:               spec.ID,
		Begin:            spec.Range.Begin,
		End:              spec.Range.End,
		DeadlineUnixNano: spec.Deadline.UnixNano(),
		ProgressStride:   opts.progressStride,
		LogLevel:         opts.logLevel,
	}
}

// Task rebuilds the counting task for this child.
func (s ChildSpec) Task(stop bench.StopFunc) bench.Task {
	return bench.Task{
		Begin:          s.Begin,
		End:            s.End,
		Deadline:       bench.DeadlineFromUnixNano(s.DeadlineUnixNano),
		Stop:           stop,
		ProgressStride: s.ProgressStride,
	}
}

// StopCommand is the line the parent writes on a child's stdin to stop it.
// The child also stops when its stdin reaches EOF.
const StopCommand = "stop"

// Message types written by a child, one JSON object per line.
const (
	MessageProgress = "progress"
	MessageResult   = "result"
)

// Message is a line of the child's stdout.
type Message struct {
	Type      string `json:"type"`
	Worker    int    `json:"worker"`
	Processed int64  `json:"processed"`
	Matches   int64  `json:"matches,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func encodeChildSpec(s ChildSpec) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode child spec: %w", err)
	}
	return string(b), nil
}

func decodeChildSpec(raw string) (ChildSpec, error) {
	var s ChildSpec
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return ChildSpec{}, fmt.Errorf("decode child spec: %w", err)
	}
	return s, nil
}
