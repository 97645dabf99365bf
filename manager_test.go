package winhotkeys

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"winhotkeys/combo"
	"winhotkeys/wm"
)

func newTestManager(t *testing.T, auth *wm.FakeAuthority) *Manager {
	t.Helper()
	m := NewManager(
		WithOpener(auth.Open),
		WithRegistry(NewRegistry()),
		WithStopGrace(time.Second),
	)
	t.Cleanup(m.StopListening)
	return m
}

func waitState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", m.State(), want)
}

// pressUntilDelivered retries a simulated key press until the combination is
// claimed with the authority; the first successful press is the match event.
func pressUntilDelivered(t *testing.T, auth *wm.FakeAuthority, spec string) {
	t.Helper()
	c, err := combo.Parse(spec)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if auth.Press(c.Mods, c.Key) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("combination %q never became registered", spec)
}

func waitCount(t *testing.T, n *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if n.Load() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("count = %d, want %d", n.Load(), want)
}

func TestEndToEnd(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	var count atomic.Int32
	if _, err := m.RegisterHotkey("control+alt+1", func() { count.Add(1) }, true); err != nil {
		t.Fatal(err)
	}
	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}

	pressUntilDelivered(t, auth, "control+alt+1")
	waitCount(t, &count, 1)

	if got := m.State(); got != StateRunning {
		t.Fatalf("pump exited early: state = %v", got)
	}

	m.StopListening()
	waitState(t, m, StateStopped)

	// A press after teardown finds no claim and must not fire the callback.
	c, _ := combo.Parse("control+alt+1")
	if auth.Press(c.Mods, c.Key) {
		t.Error("combination still claimed after stop")
	}
	time.Sleep(10 * time.Millisecond)
	if count.Load() != 1 {
		t.Errorf("count = %d after stop, want 1", count.Load())
	}
}

func TestIDsScopedPerListener(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m1 := newTestManager(t, auth)
	m2 := newTestManager(t, auth)

	var c1, c2 atomic.Int32
	id1, err := m1.RegisterHotkey("control+alt+1", func() { c1.Add(1) }, true)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := m2.RegisterHotkey("control+alt+2", func() { c2.Add(1) }, true)
	if err != nil {
		t.Fatal(err)
	}

	// Allocators are per listener: both start at 1, without colliding.
	if id1 != 1 || id2 != 1 {
		t.Fatalf("ids = %d, %d, want 1, 1", id1, id2)
	}

	if err := m1.StartListening(); err != nil {
		t.Fatal(err)
	}
	if err := m2.StartListening(); err != nil {
		t.Fatal(err)
	}

	pressUntilDelivered(t, auth, "control+alt+1")
	pressUntilDelivered(t, auth, "control+alt+2")
	waitCount(t, &c1, 1)
	waitCount(t, &c2, 1)
}

func TestStartIdempotent(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	var count atomic.Int32
	if _, err := m.RegisterHotkey("ctrl+f5", func() { count.Add(1) }, true); err != nil {
		t.Fatal(err)
	}

	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}
	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}
	waitState(t, m, StateRunning)

	pressUntilDelivered(t, auth, "ctrl+f5")
	waitCount(t, &count, 1)
}

func TestStopIdempotent(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	if _, err := m.RegisterHotkey("ctrl+f6", func() {}, true); err != nil {
		t.Fatal(err)
	}
	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}
	waitState(t, m, StateRunning)

	m.StopListening()
	m.StopListening()
	waitState(t, m, StateStopped)

	// Stop on a never-started Manager is also a no-op.
	fresh := newTestManager(t, auth)
	fresh.StopListening()
}

func TestDispatchOrdering(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	var mu sync.Mutex
	var order []string
	var count atomic.Int32
	record := func(name string) Callback {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			count.Add(1)
		}
	}

	if _, err := m.RegisterHotkey("control+alt+a", record("a"), true); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RegisterHotkey("control+alt+b", record("b"), true); err != nil {
		t.Fatal(err)
	}
	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}

	// First presses double as the "registration complete" sync point.
	pressUntilDelivered(t, auth, "control+alt+a")
	pressUntilDelivered(t, auth, "control+alt+b")
	ca, _ := combo.Parse("control+alt+a")
	cb, _ := combo.Parse("control+alt+b")
	auth.Press(cb.Mods, cb.Key)
	auth.Press(ca.Mods, ca.Key)

	waitCount(t, &count, 4)
	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "b", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestForeignCollision(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m1 := newTestManager(t, auth)
	m2 := newTestManager(t, auth)

	var c1 atomic.Int32
	if _, err := m1.RegisterHotkey("control+alt+5", func() { c1.Add(1) }, true); err != nil {
		t.Fatal(err)
	}
	if err := m1.StartListening(); err != nil {
		t.Fatal(err)
	}
	pressUntilDelivered(t, auth, "control+alt+5")
	waitCount(t, &c1, 1)

	if _, err := m2.RegisterHotkey("control+alt+5", func() {
		t.Error("second listener must not receive the combination")
	}, true); err != nil {
		t.Fatal(err)
	}
	if err := m2.StartListening(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-m2.Errors():
		if !errors.Is(err, wm.ErrAlreadyClaimed) {
			t.Fatalf("reported error = %v, want ErrAlreadyClaimed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no collision report on the error channel")
	}

	// The second listener keeps running without the combination, and the
	// first listener's claim still works.
	if got := m2.State(); got != StateRunning {
		t.Errorf("collision stopped the listener: state = %v", got)
	}
	pressUntilDelivered(t, auth, "control+alt+5")
	waitCount(t, &c1, 2)
}

func TestRegisterAfterStartRefused(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	if _, err := m.RegisterHotkey("ctrl+f7", func() {}, true); err != nil {
		t.Fatal(err)
	}
	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}

	if _, err := m.RegisterHotkey("ctrl+f8", func() {}, true); !errors.Is(err, ErrListening) {
		t.Fatalf("got %v, want ErrListening", err)
	}
}

func TestRegisterParseErrorBeforeOS(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	if _, err := m.RegisterHotkey("", func() {}, true); !errors.Is(err, combo.ErrEmpty) {
		t.Fatalf("got %v, want combo.ErrEmpty", err)
	}
	if _, err := m.RegisterHotkey("badmod+x", func() {}, true); err == nil {
		t.Fatal("expected parse error")
	}
	if got := m.State(); got != StateIdle {
		t.Errorf("parse failures must not touch the listener: state = %v", got)
	}
}

func TestRestartAfterStop(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	var count atomic.Int32
	first, err := m.RegisterHotkey("ctrl+f9", func() { count.Add(1) }, true)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}
	pressUntilDelivered(t, auth, "ctrl+f9")
	waitCount(t, &count, 1)

	m.StopListening()
	waitState(t, m, StateStopped)

	// Ids keep growing across runs of the same Manager; nothing is reused.
	second, err := m.RegisterHotkey("ctrl+f10", func() { count.Add(1) }, true)
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Errorf("id %d not above previous id %d", second, first)
	}

	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}
	pressUntilDelivered(t, auth, "ctrl+f10")
	waitCount(t, &count, 2)
}

func TestUnknownEventsIgnored(t *testing.T) {
	auth := wm.NewFakeAuthority()
	epCh := make(chan *wm.FakeEndpoint, 1)
	open := func() (wm.Endpoint, error) {
		ep, err := auth.Open()
		if err == nil {
			epCh <- ep.(*wm.FakeEndpoint)
		}
		return ep, err
	}
	m := NewManager(
		WithOpener(open),
		WithRegistry(NewRegistry()),
		WithStopGrace(time.Second),
	)
	t.Cleanup(m.StopListening)

	var count atomic.Int32
	if _, err := m.RegisterHotkey("control+alt+9", func() { count.Add(1) }, true); err != nil {
		t.Fatal(err)
	}
	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}

	var ep *wm.FakeEndpoint
	select {
	case ep = <-epCh:
	case <-time.After(time.Second):
		t.Fatal("listener never opened its endpoint")
	}

	pressUntilDelivered(t, auth, "control+alt+9")
	waitCount(t, &count, 1)

	// An id the table never issued, and an unrelated window message, must
	// both be dropped without firing anything or stopping the pump.
	ep.SimHotkey(999)
	ep.SimOther()

	pressUntilDelivered(t, auth, "control+alt+9")
	waitCount(t, &count, 2)
	if got := m.State(); got != StateRunning {
		t.Fatalf("pump exited on unknown input: state = %v", got)
	}
}

func TestIDCeiling(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	m.nextID = maxHotkeyID
	id, err := m.RegisterHotkey("ctrl+f1", func() {}, true)
	if err != nil {
		t.Fatal(err)
	}
	if id != maxHotkeyID {
		t.Fatalf("id = %#x, want %#x", id, maxHotkeyID)
	}
	if _, err := m.RegisterHotkey("ctrl+f2", func() {}, true); !errors.Is(err, ErrTooManyHotkeys) {
		t.Fatalf("got %v, want ErrTooManyHotkeys", err)
	}
}

func TestStopDuringStarting(t *testing.T) {
	auth := wm.NewFakeAuthority()
	m := newTestManager(t, auth)

	if _, err := m.RegisterHotkey("ctrl+f11", func() {}, true); err != nil {
		t.Fatal(err)
	}
	if err := m.StartListening(); err != nil {
		t.Fatal(err)
	}
	m.StopListening()

	waitState(t, m, StateStopped)
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("listener never finished tearing down")
	}
}
