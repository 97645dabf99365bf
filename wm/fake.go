package wm

import (
	"sync"

	"winhotkeys/keys"
)

// FakeAuthority simulates the process-wide registration authority for tests:
// it owns the claim table, so two endpoints requesting the same combination
// collide the way two windows do against the real OS.
type FakeAuthority struct {
	mu         sync.Mutex
	nextHandle Handle
	claims     map[uint32]*fakeClaim
}

type fakeClaim struct {
	ep *FakeEndpoint
	id int
}

func NewFakeAuthority() *FakeAuthority {
	return &FakeAuthority{claims: make(map[uint32]*fakeClaim)}
}

// Open hands out a fresh endpoint. Its signature matches wm.Open so it can be
// injected as a Manager opener.
func (a *FakeAuthority) Open() (Endpoint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextHandle++
	return &FakeEndpoint{
		auth:   a,
		handle: a.nextHandle,
		events: make(chan Event, 16),
		quit:   make(chan struct{}),
		owned:  make(map[int]uint32),
	}, nil
}

// Press delivers a match event to whichever endpoint currently claims the
// combination, returning false if nobody does.
func (a *FakeAuthority) Press(mods keys.Modifiers, key keys.Code) bool {
	a.mu.Lock()
	claim, ok := a.claims[claimKey(mods, key)]
	a.mu.Unlock()
	if !ok {
		return false
	}
	claim.ep.deliver(Event{Kind: KindHotkey, ID: claim.id})
	return true
}

// The no-repeat flag is a delivery option, not part of the combination's
// identity, matching RegisterHotKey semantics.
func claimKey(mods keys.Modifiers, key keys.Code) uint32 {
	return uint32(mods&^keys.ModNoRepeat)<<16 | uint32(key)
}

// FakeEndpoint is an in-memory Endpoint fed by its authority and by tests.
type FakeEndpoint struct {
	auth      *FakeAuthority
	handle    Handle
	events    chan Event
	quit      chan struct{}
	closeOnce sync.Once

	// owned maps registration id to claim key, guarded by auth.mu.
	owned map[int]uint32
}

func (e *FakeEndpoint) Handle() Handle { return e.handle }

func (e *FakeEndpoint) Register(id int, mods keys.Modifiers, key keys.Code) error {
	e.auth.mu.Lock()
	defer e.auth.mu.Unlock()

	k := claimKey(mods, key)
	if claim, ok := e.auth.claims[k]; ok && claim.ep != e {
		return ErrAlreadyClaimed
	}
	e.auth.claims[k] = &fakeClaim{ep: e, id: id}
	e.owned[id] = k
	return nil
}

func (e *FakeEndpoint) Unregister(id int) error {
	e.auth.mu.Lock()
	defer e.auth.mu.Unlock()

	k, ok := e.owned[id]
	if !ok {
		return nil
	}
	delete(e.owned, id)
	if claim, held := e.auth.claims[k]; held && claim.ep == e {
		delete(e.auth.claims, k)
	}
	return nil
}

func (e *FakeEndpoint) Next() (Event, bool) {
	select {
	case ev := <-e.events:
		return ev, true
	case <-e.quit:
		return Event{}, false
	}
}

func (e *FakeEndpoint) PostCleanup() {
	e.deliver(Event{Kind: KindCleanup})
}

func (e *FakeEndpoint) Close() {
	e.closeOnce.Do(func() {
		e.auth.mu.Lock()
		for id, k := range e.owned {
			delete(e.owned, id)
			if claim, held := e.auth.claims[k]; held && claim.ep == e {
				delete(e.auth.claims, k)
			}
		}
		e.auth.mu.Unlock()
		close(e.quit)
	})
}

// SimHotkey injects a match event for an id directly, bypassing the claim
// table. Useful for exercising stale-id delivery.
func (e *FakeEndpoint) SimHotkey(id int) {
	e.deliver(Event{Kind: KindHotkey, ID: id})
}

// SimOther injects an unrelated message.
func (e *FakeEndpoint) SimOther() {
	e.deliver(Event{Kind: KindOther})
}

func (e *FakeEndpoint) deliver(ev Event) {
	select {
	case e.events <- ev:
	case <-e.quit:
	}
}
