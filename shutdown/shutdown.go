// Package shutdown tracks still-running listeners so their OS-level hotkey
// claims are released before process termination even when the host forgets
// to stop them. Hosts arrange for StopAll to run on exit, typically from a
// signal handler wired through Notify.
package shutdown

import "sync"

var (
	mu     sync.Mutex
	nextID uint64
	stops  = map[uint64]func(){}
)

// Register records a stop function and returns a token for Unregister.
func Register(stop func()) uint64 {
	mu.Lock()
	defer mu.Unlock()
	nextID++
	stops[nextID] = stop
	return nextID
}

// Unregister drops a previously registered stop function. Unknown tokens are
// ignored so teardown paths can call it unconditionally.
func Unregister(id uint64) {
	mu.Lock()
	defer mu.Unlock()
	delete(stops, id)
}

// StopAll invokes every registered stop function once, in no particular
// order, and clears the registry. Safe to call more than once.
func StopAll() {
	mu.Lock()
	pending := make([]func(), 0, len(stops))
	for _, stop := range stops {
		pending = append(pending, stop)
	}
	stops = map[uint64]func(){}
	mu.Unlock()

	for _, stop := range pending {
		stop()
	}
}
