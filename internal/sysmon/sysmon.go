// Package sysmon provides system-wide and per-process CPU and memory
// sampling, plus the CPU time consumed by the benchmark itself.
package sysmon

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Returns zero values on error.
func Sample() Stats {
	var s Stats
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// ProcessStats is a snapshot of one worker process.
type ProcessStats struct {
	PID        int
	CPUPercent float64 // may exceed 100 on multi-core
	RSS        uint64  // bytes
}

// SampleProcess reads CPU and resident memory of pid.
func SampleProcess(pid int) (ProcessStats, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return ProcessStats{}, err
	}
	s := ProcessStats{PID: pid}
	if pct, err := p.CPUPercent(); err == nil {
		s.CPUPercent = pct
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return s, err
	}
	s.RSS = mi.RSS
	return s, nil
}

// LogicalCPUs returns the number of logical CPUs, falling back to the Go
// runtime's view when the system cannot be queried.
func LogicalCPUs() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// CPUTimes is the user and system CPU time consumed by this process and
// by its reaped children.
type CPUTimes struct {
	SelfUser       time.Duration
	SelfSystem     time.Duration
	ChildrenUser   time.Duration
	ChildrenSystem time.Duration
}

// Total returns the sum of all four components.
func (c CPUTimes) Total() time.Duration {
	return c.SelfUser + c.SelfSystem + c.ChildrenUser + c.ChildrenSystem
}

// Sub returns c - o, component-wise.
func (c CPUTimes) Sub(o CPUTimes) CPUTimes {
	return CPUTimes{
		SelfUser:       c.SelfUser - o.SelfUser,
		SelfSystem:     c.SelfSystem - o.SelfSystem,
		ChildrenUser:   c.ChildrenUser - o.ChildrenUser,
		ChildrenSystem: c.ChildrenSystem - o.ChildrenSystem,
	}
}
