package bench

import (
	"fmt"

	apperrors "github.com/agbru/parbench/internal/errors"
)

// WorkRange is the half-open slice [Begin, End) of the overall range owned
// by a single worker.
type WorkRange struct {
	WorkerID int
	Begin    int64
	End      int64
}

// Len returns the number of values in the range.
func (r WorkRange) Len() int64 {
	if r.End <= r.Begin {
		return 0
	}
	return r.End - r.Begin
}

// String renders the range as "[begin, end)".
func (r WorkRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Begin, r.End)
}

// Partition splits [0, workSize) into workers contiguous ranges of
// workSize/workers values each. The remainder of the integer division is not
// assigned to any worker, so the ranges cover [0, unit*workers).
func Partition(workSize int64, workers int) ([]WorkRange, error) {
	if workers <= 0 {
		return nil, apperrors.ValidationError{Field: "workers", Message: "must be greater than zero"}
	}
	if workSize < 0 {
		return nil, apperrors.ValidationError{Field: "work-size", Message: "must be non-negative"}
	}

	unit := WorkUnit(workSize, workers)
	ranges := make([]WorkRange, workers)
	for i := range ranges {
		begin := int64(i) * unit
		ranges[i] = WorkRange{WorkerID: i, Begin: begin, End: begin + unit}
	}
	return ranges, nil
}

// WorkUnit returns the per-worker range length used by Partition.
func WorkUnit(workSize int64, workers int) int64 {
	if workers <= 0 || workSize <= 0 {
		return 0
	}
	return workSize / int64(workers)
}

// Remainder returns the number of values at the tail of [0, workSize) that
// Partition leaves unassigned.
func Remainder(workSize int64, workers int) int64 {
	if workers <= 0 || workSize <= 0 {
		return 0
	}
	return workSize - WorkUnit(workSize, workers)*int64(workers)
}
