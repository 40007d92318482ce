//go:build unix

package worker

import "syscall"

// childProcAttr puts each child in its own process group, so a terminal
// interrupt reaches only the parent, which stops the children over stdin.
func childProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
