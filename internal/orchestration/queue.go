package orchestration

import (
	"fmt"
	"sync/atomic"

	ring "github.com/randomizedcoder/go-lock-free-ring"
)

const (
	progressRingCapacity = 4096
	progressRingShards   = 8
)

// progressQueue carries progress samples from the workers (many producers)
// to the controller's sampler (one consumer) without locking the counting
// loop. A full shard drops the sample; the sampler falls back to polling
// each worker's Processed at the end of the run.
type progressQueue struct {
	write   func(producer uint64, u ProgressUpdate) bool
	read    func() (ProgressUpdate, bool)
	dropped atomic.Int64
}

func newProgressQueue() (*progressQueue, error) {
	r, err := ring.NewShardedRing(progressRingCapacity, progressRingShards)
	if err != nil {
		return nil, fmt.Errorf("progress queue: %w", err)
	}
	q := &progressQueue{
		write: func(producer uint64, u ProgressUpdate) bool {
			return r.Write(producer, u)
		},
	}
	q.read = func() (ProgressUpdate, bool) {
		for {
			v, ok := r.TryRead()
			if !ok {
				return ProgressUpdate{}, false
			}
			if u, ok := v.(ProgressUpdate); ok {
				return u, true
			}
		}
	}
	return q, nil
}

// Publish enqueues a sample for worker id.
func (q *progressQueue) Publish(id int, processed, total int64) {
	if !q.write(uint64(id), ProgressUpdate{WorkerID: id, Processed: processed, Total: total}) {
		q.dropped.Add(1)
	}
}

// Drain empties the queue and returns the most advanced sample per worker.
func (q *progressQueue) Drain() map[int]ProgressUpdate {
	latest := make(map[int]ProgressUpdate)
	for {
		u, ok := q.read()
		if !ok {
			return latest
		}
		if prev, seen := latest[u.WorkerID]; !seen || u.Processed > prev.Processed {
			latest[u.WorkerID] = u
		}
	}
}

// Dropped returns how many samples were lost to full shards.
func (q *progressQueue) Dropped() int64 {
	return q.dropped.Load()
}
