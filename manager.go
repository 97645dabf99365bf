// Package winhotkeys registers combinations of modifier keys and a primary
// key ("control+alt+h") as system-wide hotkeys and invokes a callback when
// one is pressed, regardless of which window has focus.
//
// A Manager owns one background listener: a dedicated OS-thread-locked
// goroutine that creates the receiver endpoint, registers every hotkey in its
// table with the OS authority, pumps match events, and runs callbacks. The
// table is built before StartListening and frozen afterwards; a host that
// wants different hotkeys stops the listener and starts a fresh one. Handler
// wraps the common single-hotkey case.
package winhotkeys

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"winhotkeys/combo"
	"winhotkeys/log"
	"winhotkeys/shutdown"
	"winhotkeys/wm"
)

// Callback runs on the listener's goroutine when its hotkey fires. It blocks
// the pump until it returns, so callbacks for one Manager never overlap.
type Callback func()

// State is the listener lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Win32 reserves ids above 0xBFFF for DLLs; staying below is the allocator's
// resource-exhaustion limit.
const maxHotkeyID = 0xBFFF

// ErrListening is returned by RegisterHotkey once the listener has started:
// the registration table is write-only-before-start.
var ErrListening = errors.New("hotkey table is frozen while the listener runs")

// ErrTooManyHotkeys is returned when the id allocator reaches the platform
// identifier ceiling.
var ErrTooManyHotkeys = errors.New("hotkey id space exhausted")

type entry struct {
	id       int
	combo    combo.Combo
	callback Callback
}

// Manager registers hotkeys and listens for them on a dedicated goroutine.
type Manager struct {
	mu            sync.Mutex
	state         State
	nextID        int
	entries       []entry
	endpoint      wm.Endpoint
	done          chan struct{}
	stopRequested bool
	shutdownTok   uint64

	errs     chan error
	registry *Registry
	open     func() (wm.Endpoint, error)
	grace    time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry routes the Manager through r instead of the default
// process-wide registry.
func WithRegistry(r *Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithOpener substitutes the endpoint constructor, e.g. a wm.FakeAuthority
// in tests.
func WithOpener(open func() (wm.Endpoint, error)) Option {
	return func(m *Manager) { m.open = open }
}

// WithStopGrace bounds how long StopListening waits for teardown before
// returning. The default is 100ms.
func WithStopGrace(d time.Duration) Option {
	return func(m *Manager) { m.grace = d }
}

func NewManager(opts ...Option) *Manager {
	closed := make(chan struct{})
	close(closed)
	m := &Manager{
		state:    StateIdle,
		nextID:   1,
		done:     closed,
		errs:     make(chan error, 8),
		registry: defaultRegistry,
		open:     wm.Open,
		grace:    100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterHotkey parses spec, allocates the next id, and adds the entry to
// the table. Nothing touches the OS here; registration with the authority
// happens on the listener goroutine during StartListening.
//
// suppress is accepted for interface parity: the underlying registration
// mechanism always captures the combination exclusively.
func (m *Manager) RegisterHotkey(spec string, cb Callback, suppress bool) (int, error) {
	c, err := combo.Parse(spec)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle && m.state != StateStopped {
		return 0, ErrListening
	}
	if m.nextID > maxHotkeyID {
		return 0, ErrTooManyHotkeys
	}

	id := m.nextID
	m.nextID++
	m.entries = append(m.entries, entry{id: id, combo: c, callback: cb})
	log.Infof("queued hotkey %q (id=%d)", spec, id)
	return id, nil
}

// StartListening spawns the listener goroutine and returns without waiting
// for OS registration to complete; asynchronous failures arrive on Errors.
// Calling it on a live Manager is a no-op.
func (m *Manager) StartListening() error {
	m.mu.Lock()
	if m.state == StateStarting || m.state == StateRunning || m.state == StateStopping {
		m.mu.Unlock()
		return nil
	}
	m.state = StateStarting
	m.stopRequested = false
	m.endpoint = nil
	m.done = make(chan struct{})
	m.shutdownTok = shutdown.Register(m.StopListening)
	m.mu.Unlock()

	go m.run()
	return nil
}

// StopListening requests cooperative teardown by posting a cleanup event into
// the listener's queue; it never unregisters or destroys the endpoint from
// the caller's thread. It waits at most the configured grace delay, so a
// callback in flight can delay actual teardown past the return.
func (m *Manager) StopListening() {
	m.mu.Lock()
	if m.state == StateIdle || m.state == StateStopped || m.state == StateStopping {
		m.mu.Unlock()
		return
	}
	m.stopRequested = true
	if m.state == StateRunning {
		m.state = StateStopping
	}
	ep := m.endpoint
	done := m.done
	grace := m.grace
	m.mu.Unlock()

	// During Starting the endpoint does not exist yet; the listener checks
	// stopRequested right after creating it.
	if ep != nil {
		ep.PostCleanup()
	}

	select {
	case <-done:
	case <-time.After(grace):
	}
}

// Errors reports asynchronous registration and teardown failures. The
// channel is buffered; reports are dropped once it fills, but every failure
// is also logged.
func (m *Manager) Errors() <-chan error {
	return m.errs
}

// Done is closed when the listener has fully torn down.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// run is the listener: endpoint creation, registration, pump and teardown
// all happen here because the receiver endpoint is bound to the OS thread
// that created it.
func (m *Manager) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ep, err := m.open()
	if err != nil {
		m.report(fmt.Errorf("creating receiver endpoint: %w", err))
		m.mu.Lock()
		m.state = StateStopped
		shutdown.Unregister(m.shutdownTok)
		done := m.done
		m.mu.Unlock()
		close(done)
		return
	}

	m.mu.Lock()
	m.endpoint = ep
	m.registry.insert(ep.Handle(), m)
	m.state = StateRunning
	stopNow := m.stopRequested
	entries := m.entries
	m.mu.Unlock()

	if !stopNow {
		for _, e := range entries {
			m.registerEntry(ep, e)
		}

	pump:
		for {
			ev, ok := ep.Next()
			if !ok {
				break
			}
			switch ev.Kind {
			case wm.KindHotkey:
				m.dispatch(ep, ev.ID)
			case wm.KindCleanup:
				break pump
			}
		}
	}

	// Teardown never aborts: unregister failures are logged and the
	// directory entry goes away before the endpoint does, so no event can
	// route to a destroyed listener.
	for _, e := range entries {
		if err := ep.Unregister(e.id); err != nil {
			log.Warnf("teardown: %v", err)
		}
	}
	m.registry.remove(ep.Handle())
	ep.Close()

	m.mu.Lock()
	m.state = StateStopped
	m.endpoint = nil
	shutdown.Unregister(m.shutdownTok)
	done := m.done
	m.mu.Unlock()
	close(done)
	log.Info("listener stopped")
}

// registerEntry claims the combination with the OS authority. A foreign
// collision gets exactly one unregister-then-register retry, which clears a
// stale claim left behind by an unclean prior exit; a second failure skips
// the entry without stopping the listener.
func (m *Manager) registerEntry(ep wm.Endpoint, e entry) {
	err := ep.Register(e.id, e.combo.Mods, e.combo.Key)
	if errors.Is(err, wm.ErrAlreadyClaimed) {
		if uerr := ep.Unregister(e.id); uerr != nil {
			log.Warnf("retry unregister for %q: %v", e.combo.Raw, uerr)
		}
		err = ep.Register(e.id, e.combo.Mods, e.combo.Key)
	}
	if err != nil {
		m.report(fmt.Errorf("registering %q (id %d): %w", e.combo.Raw, e.id, err))
		return
	}
	log.Registered(e.id, e.combo.Raw)
}

func (m *Manager) dispatch(ep wm.Endpoint, id int) {
	// Confirm the endpoint still routes to this Manager; a teardown race
	// means the event belongs to nobody.
	if owner, ok := m.registry.lookup(ep.Handle()); !ok || owner != m {
		return
	}
	// entries are immutable once Running, so no lock is needed here.
	for i := range m.entries {
		if m.entries[i].id == id {
			log.Dispatched(id, m.entries[i].combo.Raw)
			m.entries[i].callback()
			return
		}
	}
	// Stale id, dropped.
}

func (m *Manager) report(err error) {
	log.Errorf("%v", err)
	select {
	case m.errs <- err:
	default:
	}
}
