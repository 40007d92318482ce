package metrics

import (
	"fmt"
	"runtime"
)

// MemorySnapshot holds a point-in-time reading of the controller process.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use
	HeapSys      uint64 // bytes obtained from the OS for the heap
	NumGC        uint32 // completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause
	Goroutines   int    // live goroutines, workers included in thread mode
}

// MemoryCollector reads runtime memory statistics for the dashboard.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		Goroutines:   runtime.NumGoroutine(),
	}
}

// FormatBytes renders b with a binary unit.
func FormatBytes(b uint64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
