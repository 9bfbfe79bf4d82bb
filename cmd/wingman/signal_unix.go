//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals start a graceful shutdown. Process managers stop services with SIGTERM.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
