//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify subscribes ch to interrupt and termination signals so hosts can run
// StopAll before exiting, releasing every live hotkey claim.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
