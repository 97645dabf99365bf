//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

// Notify subscribes ch to the interrupt signal. Console ctrl+c is the only
// termination notice a Windows console process receives this way; service
// control messages are out of scope.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
