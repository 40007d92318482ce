//go:build !linux && !darwin

package sysmon

import "errors"

// ReadCPUTimes is not supported on this platform.
func ReadCPUTimes() (CPUTimes, error) {
	return CPUTimes{}, errors.New("cpu times not supported on this platform")
}
