// Package broker mediates stateful RPC: each caller that wants to work on
// an account first asks the broker for a handle, then drives that handle,
// per SPEC_FULL.md §4.7. Handles are indexed by (caller, account-id) once
// attached to a persisted record; idle handles are disposed after a
// configurable timeout, with in-flight calls deferring disposal.
package broker

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/o1-security/gumd/pkg/metrics"
)

// State is a handle's position in its lifecycle.
type State int

const (
	// Draft is a handle minted before its underlying record exists (the
	// caller has not yet called addUser/addGroup on it).
	Draft State = iota
	// Attached is a handle backed by a persisted account-id.
	Attached
	// Dead is a disposed handle; any further RPC on it is an error at the
	// façade layer.
	Dead
)

// Kind distinguishes user handles from group handles for metrics and
// object-path minting.
type Kind string

const (
	KindUser  Kind = "user"
	KindGroup Kind = "group"
)

// Key identifies a live, attached handle: the bus caller identity paired
// with the account's id (uid or gid).
type Key struct {
	Caller string
	ID     uint32
}

// Handle is a transient, caller-associated object for one user or group
// record.
type Handle struct {
	mu sync.Mutex

	ObjectPath string
	Kind       Kind
	Caller     string

	state State
	id    uint32

	idleTimeout time.Duration
	timer       *time.Timer
	busyCount   int
	disposePending bool

	onDispose func(*Handle)
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ID returns the handle's attached account id. Only meaningful once State
// is Attached.
func (h *Handle) ID() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

// Busy suspends the idle timer for the duration of one RPC; the returned
// func must be called exactly once when the call completes.
func (h *Handle) Busy() func() {
	h.mu.Lock()
	h.busyCount++
	if h.timer != nil {
		h.timer.Stop()
	}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		h.busyCount--
		dispose := false
		if h.busyCount == 0 {
			if h.disposePending {
				dispose = true
			} else {
				h.rearmLocked()
			}
		}
		h.mu.Unlock()
		if dispose {
			h.disposeNow()
		}
	}
}

func (h *Handle) rearmLocked() {
	if h.idleTimeout <= 0 || h.state == Dead {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.idleTimeout, h.onIdleFire)
}

func (h *Handle) onIdleFire() {
	h.mu.Lock()
	if h.busyCount > 0 || h.state == Dead {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	h.disposeNow()
}

// RequestDispose asks the handle to dispose itself: immediately if idle,
// or deferred until the in-flight call count falls to zero.
func (h *Handle) RequestDispose() {
	h.mu.Lock()
	if h.state == Dead {
		h.mu.Unlock()
		return
	}
	if h.busyCount > 0 {
		h.disposePending = true
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	h.disposeNow()
}

func (h *Handle) disposeNow() {
	h.mu.Lock()
	if h.state == Dead {
		h.mu.Unlock()
		return
	}
	h.state = Dead
	if h.timer != nil {
		h.timer.Stop()
	}
	onDispose := h.onDispose
	h.mu.Unlock()
	if onDispose != nil {
		onDispose(h)
	}
}

// attach transitions a Draft handle to Attached(id). Must be called by
// the broker holding its own lock so the (caller, id) index update is
// atomic with the state transition.
func (h *Handle) attach(id uint32) {
	h.mu.Lock()
	h.state = Attached
	h.id = id
	h.mu.Unlock()
}

// Broker is the per-transport handle cache.
type Broker struct {
	mu       sync.Mutex
	byKey    map[Key]*Handle
	draft    map[*Handle]struct{}
	counter  uint64
	root     string
	timeouts map[Kind]time.Duration
	metrics  *metrics.BrokerMetrics
}

// New builds a Broker minting object paths under root (e.g.
// "/org/O1/SecurityAccounts/gUserManagement"), with idle timeouts per
// kind.
func New(root string, timeouts map[Kind]time.Duration, m *metrics.BrokerMetrics) *Broker {
	return &Broker{
		byKey:    make(map[Key]*Handle),
		draft:    make(map[*Handle]struct{}),
		root:     root,
		timeouts: timeouts,
		metrics:  m,
	}
}

// Lookup returns the existing live handle for (caller, id), if any.
func (b *Broker) Lookup(caller string, id uint32) (*Handle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.byKey[Key{Caller: caller, ID: id}]
	return h, ok
}

// GetOrCreate returns the existing handle for (caller, id) if one is
// live, otherwise mints and attaches a new one.
func (b *Broker) GetOrCreate(caller string, id uint32, kind Kind) *Handle {
	b.mu.Lock()
	key := Key{Caller: caller, ID: id}
	if h, ok := b.byKey[key]; ok {
		b.mu.Unlock()
		return h
	}
	h := b.newHandleLocked(caller, kind)
	h.attach(id)
	b.byKey[key] = h
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.IncMinted(string(kind))
	}
	h.mu.Lock()
	h.rearmLocked()
	h.mu.Unlock()
	return h
}

// NewDraft mints an unattached handle (e.g. for createNewUser before
// addUser has succeeded). It is not inserted into the (caller, id) index
// until Attach is called.
func (b *Broker) NewDraft(caller string, kind Kind) *Handle {
	b.mu.Lock()
	h := b.newHandleLocked(caller, kind)
	b.draft[h] = struct{}{}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.IncMinted(string(kind))
	}
	h.mu.Lock()
	h.rearmLocked()
	h.mu.Unlock()
	return h
}

// Attach transitions a draft handle to Attached(id) and inserts it into
// the (caller, id) de-duplication index. If another live handle already
// holds that key (a race between two draft creations), the existing one
// wins and h is disposed instead.
func (b *Broker) Attach(h *Handle, id uint32) *Handle {
	b.mu.Lock()
	key := Key{Caller: h.Caller, ID: id}
	if existing, ok := b.byKey[key]; ok && existing != h {
		delete(b.draft, h)
		b.mu.Unlock()
		h.disposeNow()
		return existing
	}
	delete(b.draft, h)
	h.attach(id)
	b.byKey[key] = h
	b.mu.Unlock()
	return h
}

func (b *Broker) newHandleLocked(caller string, kind Kind) *Handle {
	b.counter++
	nonce := randomNonce()
	path := fmt.Sprintf("%s/%s_%s_%d", b.root, objectSegment(kind), nonce, b.counter)

	h := &Handle{
		ObjectPath:  path,
		Kind:        kind,
		Caller:      caller,
		state:       Draft,
		idleTimeout: b.timeoutFor(kind),
	}
	h.onDispose = b.dispose
	return h
}

func (b *Broker) timeoutFor(kind Kind) time.Duration {
	if b.timeouts == nil {
		return 0
	}
	return b.timeouts[kind]
}

// dispose removes h from every index it might be in. Called from the
// handle's own disposeNow, so it must not re-acquire h's lock.
func (b *Broker) dispose(h *Handle) {
	b.mu.Lock()
	delete(b.draft, h)
	for k, v := range b.byKey {
		if v == h {
			delete(b.byKey, k)
			break
		}
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.IncDisposed(string(h.Kind), "disposed")
	}
}

// DisposeAll requests disposal of every live handle, draft or attached —
// used on SIGHUP transport rebuild (S8).
func (b *Broker) DisposeAll() {
	b.mu.Lock()
	handles := make([]*Handle, 0, len(b.byKey)+len(b.draft))
	for _, h := range b.byKey {
		handles = append(handles, h)
	}
	for h := range b.draft {
		handles = append(handles, h)
	}
	b.mu.Unlock()

	for _, h := range handles {
		h.RequestDispose()
	}
}

func objectSegment(kind Kind) string {
	if kind == KindGroup {
		return "Group"
	}
	return "User"
}

func randomNonce() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
