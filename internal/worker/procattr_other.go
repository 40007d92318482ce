//go:build !unix

package worker

import "syscall"

func childProcAttr() *syscall.SysProcAttr { return nil }
