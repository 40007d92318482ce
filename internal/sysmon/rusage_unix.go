//go:build linux || darwin

package sysmon

import (
	"time"

	"golang.org/x/sys/unix"
)

// ReadCPUTimes returns the CPU time used so far by this process and its
// waited-for children.
func ReadCPUTimes() (CPUTimes, error) {
	var self, children unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &self); err != nil {
		return CPUTimes{}, err
	}
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &children); err != nil {
		return CPUTimes{}, err
	}
	return CPUTimes{
		SelfUser:       time.Duration(self.Utime.Nano()),
		SelfSystem:     time.Duration(self.Stime.Nano()),
		ChildrenUser:   time.Duration(children.Utime.Nano()),
		ChildrenSystem: time.Duration(children.Stime.Nano()),
	}, nil
}
