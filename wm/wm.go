// Package wm abstracts the OS hotkey-registration authority: a receiver
// endpoint that claims (modifiers, key) combinations under small integer ids
// and delivers match events through a blocking pump.
//
// On Windows the endpoint is a hidden native window pumping its thread's
// message queue; elsewhere it is backed by golang.design/x/hotkey. A fake
// implementation is provided for tests.
package wm

import (
	"errors"
	"fmt"

	"winhotkeys/keys"
)

// ErrAlreadyClaimed reports a foreign collision: the exact combination is
// already claimed by another registration in the system.
var ErrAlreadyClaimed = errors.New("hotkey combination already claimed")

// RegistrationError is an OS registration failure other than a collision.
type RegistrationError struct {
	Code uint32
	Err  error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hotkey registration failed (code %d): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("hotkey registration failed (code %d)", e.Code)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Handle identifies a receiver endpoint within the process.
type Handle uintptr

// EventKind discriminates pump events.
type EventKind int

const (
	// KindHotkey is a hotkey-match event carrying the registration id.
	KindHotkey EventKind = iota
	// KindCleanup requests cooperative teardown of the pump.
	KindCleanup
	// KindOther is any other inbound message; callers ignore it.
	KindOther
)

// Event is one inbound pump event.
type Event struct {
	Kind EventKind
	ID   int
}

// Endpoint is a receiver for hotkey match events. Register, Unregister, Next
// and Close must all run on the goroutine (locked to its OS thread) that
// opened the endpoint; PostCleanup is safe from any goroutine.
type Endpoint interface {
	Handle() Handle
	Register(id int, mods keys.Modifiers, key keys.Code) error
	Unregister(id int) error
	// Next blocks for the next inbound event. It returns false once the
	// event queue has shut down and no further events will arrive.
	Next() (Event, bool)
	// PostCleanup enqueues a KindCleanup event visible to Next.
	PostCleanup()
	Close()
}
