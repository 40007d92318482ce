package format

import (
	"fmt"
	"strings"
	"time"
)

// ProgressState tracks the completion fraction of each worker.
type ProgressState struct {
	progresses []float64
	numWorkers int
}

// NewProgressState creates a state for n workers.
func NewProgressState(n int) *ProgressState {
	if n < 0 {
		n = 0
	}
	return &ProgressState{progresses: make([]float64, n), numWorkers: n}
}

// Update records the fraction in [0, 1] for worker index. Out-of-range
// indexes are ignored and values are clamped.
func (p *ProgressState) Update(index int, value float64) {
	if index < 0 || index >= p.numWorkers {
		return
	}
	p.progresses[index] = clamp01(value)
}

// CalculateAverage returns the mean fraction over all workers.
func (p *ProgressState) CalculateAverage() float64 {
	if p.numWorkers == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.progresses {
		sum += v
	}
	return sum / float64(p.numWorkers)
}

// Fraction returns the fraction recorded for worker index.
func (p *ProgressState) Fraction(index int) float64 {
	if index < 0 || index >= p.numWorkers {
		return 0
	}
	return p.progresses[index]
}

// maxETA caps estimates produced from a near-zero rate.
const maxETA = 24 * time.Hour

// ProgressWithETA adds an exponentially smoothed progress rate to
// ProgressState so that a remaining time can be estimated.
type ProgressWithETA struct {
	*ProgressState
	numWorkers   int
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	// progressRate is the smoothed average progress per second.
	progressRate float64
}

// NewProgressWithETA creates a tracker for n workers starting now.
func NewProgressWithETA(n int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(n),
		numWorkers:    n,
		startTime:     now,
		lastUpdate:    now,
	}
}

// UpdateWithETA records a worker fraction and returns the new average and
// the estimated time remaining.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.Update(index, value)
	avg := p.CalculateAverage()

	now := time.Now()
	if elapsed := now.Sub(p.lastUpdate).Seconds(); elapsed > 0.05 {
		rate := (avg - p.lastProgress) / elapsed
		if rate > 0 {
			if p.progressRate == 0 {
				p.progressRate = rate
			} else {
				p.progressRate = 0.3*rate + 0.7*p.progressRate
			}
		}
		p.lastUpdate = now
		p.lastProgress = avg
	}
	return avg, p.GetETA()
}

// GetETA returns the estimated remaining time, 0 when unknown.
func (p *ProgressWithETA) GetETA() time.Duration {
	if p.progressRate <= 0 {
		return 0
	}
	remaining := 1 - p.CalculateAverage()
	if remaining <= 0 {
		return 0
	}
	secs := remaining / p.progressRate
	if secs > maxETA.Seconds() {
		return maxETA
	}
	return time.Duration(secs * float64(time.Second))
}

// Elapsed returns the time since the tracker was created.
func (p *ProgressWithETA) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

// FormatETA renders an ETA compactly ("45s", "2m30s", "1h15m").
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}
	eta = eta.Round(time.Second)
	h := int(eta / time.Hour)
	m := int((eta % time.Hour) / time.Minute)
	s := int((eta % time.Minute) / time.Second)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ProgressBar renders a bar of length cells for a fraction in [0, 1].
func ProgressBar(progress float64, length int) string {
	if length <= 0 {
		return ""
	}
	filled := int(clamp01(progress) * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar]  42.00% ETA: 1m3s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %6.2f%% ETA: %s", ProgressBar(progress, width), clamp01(progress)*100, FormatETA(eta))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
