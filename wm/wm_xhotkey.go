//go:build !windows

package wm

import (
	"fmt"
	"sync/atomic"

	"golang.design/x/hotkey"

	"winhotkeys/keys"
)

var nextHandle atomic.Uint64

// Open returns an endpoint backed by golang.design/x/hotkey. There is no
// native window here; the "endpoint" is an event channel fed by one forwarder
// goroutine per registration. Thread affinity requirements of the underlying
// library still apply, so callers keep the pump goroutine OS-thread locked.
func Open() (Endpoint, error) {
	return &xEndpoint{
		handle: Handle(nextHandle.Add(1)),
		events: make(chan Event, 64),
		quit:   make(chan struct{}),
		regs:   make(map[int]*xRegistration),
	}, nil
}

type xRegistration struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

type xEndpoint struct {
	handle Handle
	events chan Event
	quit   chan struct{}
	// regs is touched only by the pump goroutine, per the Endpoint contract.
	regs map[int]*xRegistration
}

func (e *xEndpoint) Handle() Handle { return e.handle }

func (e *xEndpoint) Register(id int, mods keys.Modifiers, key keys.Code) error {
	xkey, ok := vkToKey[key]
	if !ok {
		return &RegistrationError{Err: fmt.Errorf("key code 0x%X has no mapping on this platform", key)}
	}

	hk := hotkey.New(translateMods(mods), xkey)
	if err := hk.Register(); err != nil {
		return &RegistrationError{Err: err}
	}

	stop := make(chan struct{})
	e.regs[id] = &xRegistration{hk: hk, stop: stop}
	go e.forward(hk, id, stop)
	return nil
}

func (e *xEndpoint) forward(hk *hotkey.Hotkey, id int, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-e.quit:
			return
		case <-hk.Keydown():
			select {
			case e.events <- Event{Kind: KindHotkey, ID: id}:
			case <-stop:
				return
			case <-e.quit:
				return
			}
		}
	}
}

func (e *xEndpoint) Unregister(id int) error {
	reg, ok := e.regs[id]
	if !ok {
		return fmt.Errorf("hotkey id %d is not registered", id)
	}
	delete(e.regs, id)
	close(reg.stop)
	return reg.hk.Unregister()
}

func (e *xEndpoint) Next() (Event, bool) {
	select {
	case ev := <-e.events:
		return ev, true
	case <-e.quit:
		return Event{}, false
	}
}

func (e *xEndpoint) PostCleanup() {
	select {
	case e.events <- Event{Kind: KindCleanup}:
	case <-e.quit:
	}
}

func (e *xEndpoint) Close() {
	for id, reg := range e.regs {
		delete(e.regs, id)
		close(reg.stop)
		reg.hk.Unregister()
	}
	close(e.quit)
}

// vkToKey maps canonical virtual-key codes to golang.design/x/hotkey keys.
// The constant names are portable; their values are platform-correct.
// ModNoRepeat has no equivalent here and is dropped by translateMods.
var vkToKey = map[keys.Code]hotkey.Key{
	0x20: hotkey.KeySpace,
	0x0D: hotkey.KeyReturn,
	0x1B: hotkey.KeyEscape,
	0x09: hotkey.KeyTab,
	0x2E: hotkey.KeyDelete,
	0x25: hotkey.KeyLeft,
	0x26: hotkey.KeyUp,
	0x27: hotkey.KeyRight,
	0x28: hotkey.KeyDown,

	0x30: hotkey.Key0, 0x31: hotkey.Key1, 0x32: hotkey.Key2, 0x33: hotkey.Key3,
	0x34: hotkey.Key4, 0x35: hotkey.Key5, 0x36: hotkey.Key6, 0x37: hotkey.Key7,
	0x38: hotkey.Key8, 0x39: hotkey.Key9,

	0x41: hotkey.KeyA, 0x42: hotkey.KeyB, 0x43: hotkey.KeyC, 0x44: hotkey.KeyD,
	0x45: hotkey.KeyE, 0x46: hotkey.KeyF, 0x47: hotkey.KeyG, 0x48: hotkey.KeyH,
	0x49: hotkey.KeyI, 0x4A: hotkey.KeyJ, 0x4B: hotkey.KeyK, 0x4C: hotkey.KeyL,
	0x4D: hotkey.KeyM, 0x4E: hotkey.KeyN, 0x4F: hotkey.KeyO, 0x50: hotkey.KeyP,
	0x51: hotkey.KeyQ, 0x52: hotkey.KeyR, 0x53: hotkey.KeyS, 0x54: hotkey.KeyT,
	0x55: hotkey.KeyU, 0x56: hotkey.KeyV, 0x57: hotkey.KeyW, 0x58: hotkey.KeyX,
	0x59: hotkey.KeyY, 0x5A: hotkey.KeyZ,

	0x70: hotkey.KeyF1, 0x71: hotkey.KeyF2, 0x72: hotkey.KeyF3, 0x73: hotkey.KeyF4,
	0x74: hotkey.KeyF5, 0x75: hotkey.KeyF6, 0x76: hotkey.KeyF7, 0x77: hotkey.KeyF8,
	0x78: hotkey.KeyF9, 0x79: hotkey.KeyF10, 0x7A: hotkey.KeyF11, 0x7B: hotkey.KeyF12,
	0x7C: hotkey.KeyF13, 0x7D: hotkey.KeyF14, 0x7E: hotkey.KeyF15, 0x7F: hotkey.KeyF16,
	0x80: hotkey.KeyF17, 0x81: hotkey.KeyF18, 0x82: hotkey.KeyF19, 0x83: hotkey.KeyF20,
}
