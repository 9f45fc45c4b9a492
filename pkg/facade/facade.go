// Package facade translates broker lookups and engine calls into the two
// RPC surfaces (Accounts/User, Groups/Group) busiface describes, per
// SPEC_FULL.md §4.8. Property sets on the RPC side (SetProperty) are
// mirrored into the handle's in-memory record; changes to the record are
// not sent back as property-change notifications. SetProperty skips a
// property that MirrorGuard reports as in flight, but nothing in the
// façade calls MirrorGuard.Propagate, so no set is skipped in practice.
package facade

import (
	"context"
	"fmt"
	"sync"

	"github.com/o1-security/gumd/internal/logger"
	"github.com/o1-security/gumd/pkg/account"
	"github.com/o1-security/gumd/pkg/broker"
	"github.com/o1-security/gumd/pkg/busiface"
	"github.com/o1-security/gumd/pkg/engine"
	"github.com/o1-security/gumd/pkg/errs"
)

// MirrorGuard is a single reentrancy token: while the façade is
// propagating a specific property name, a notification on that same name
// arriving from the other direction is ignored.
type MirrorGuard struct {
	mu       sync.Mutex
	inFlight string
}

// Propagate runs fn while marking property as in-flight, so a reentrant
// Suppressed call for the same property during fn is skipped.
func (g *MirrorGuard) Propagate(property string, fn func()) {
	g.mu.Lock()
	g.inFlight = property
	g.mu.Unlock()

	fn()

	g.mu.Lock()
	g.inFlight = ""
	g.mu.Unlock()
}

// Suppressed reports whether a change notification for property should be
// dropped because the façade is already propagating it in the other
// direction.
func (g *MirrorGuard) Suppressed(property string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight == property
}

// Facade wires a Broker and Engine into the busiface surfaces.
type Facade struct {
	broker *broker.Broker
	engine *engine.Engine
	emit   busiface.SignalEmitter
}

// New builds a Facade.
func New(b *broker.Broker, e *engine.Engine, emit busiface.SignalEmitter) *Facade {
	return &Facade{broker: b, engine: e, emit: emit}
}

// CreateNewUser mints a draft user handle for caller and returns its
// object path; the handle has no persisted record until AddUser succeeds.
func (f *Facade) CreateNewUser(ctx context.Context, caller busiface.CallerID) (string, error) {
	h := f.broker.NewDraft(string(caller), broker.KindUser)
	return h.ObjectPath, nil
}

// GetUser returns the handle for (caller, uid), minting one if needed.
func (f *Facade) GetUser(ctx context.Context, caller busiface.CallerID, uid uint32) (string, error) {
	u, found, err := f.engine.GetUserByID(uid)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errs.UserNotFound(fmt.Sprintf("uid %d", uid))
	}
	h := f.broker.GetOrCreate(string(caller), u.UID, broker.KindUser)
	return h.ObjectPath, nil
}

// GetUserByName returns the handle for (caller, uid-of-name).
func (f *Facade) GetUserByName(ctx context.Context, caller busiface.CallerID, name string) (string, error) {
	u, found, err := f.engine.GetUserByName(name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errs.UserNotFound(name)
	}
	h := f.broker.GetOrCreate(string(caller), u.UID, broker.KindUser)
	return h.ObjectPath, nil
}

// UserHandleImpl backs the busiface.UserHandle surface for one Handle,
// carrying the in-memory record it mirrors to/from the RPC side.
type UserHandleImpl struct {
	mu     sync.Mutex
	handle *broker.Handle
	facade *Facade
	guard  MirrorGuard
	draft  account.User // staged fields before AddUser persists them
	record *account.User
}

// NewUserHandleImpl wraps handle with the mirror/RPC glue.
func NewUserHandleImpl(h *broker.Handle, f *Facade) *UserHandleImpl {
	return &UserHandleImpl{handle: h, facade: f}
}

// Properties returns the current mirrored record.
func (u *UserHandleImpl) Properties(ctx context.Context) (busiface.UserProperties, error) {
	done := u.handle.Busy()
	defer done()

	u.mu.Lock()
	defer u.mu.Unlock()
	rec := u.record
	if rec == nil {
		rec = &u.draft
	}
	return busiface.UserProperties{
		UID: rec.UID, GID: rec.GID, Username: rec.Username,
		Realname: rec.Gecos.Realname, Home: rec.Home, Shell: rec.Shell,
	}, nil
}

// SetProperty mirrors an RPC-side property set into the staged or
// persisted record, guarded against echo.
func (u *UserHandleImpl) SetProperty(ctx context.Context, name string, value any) error {
	if u.guard.Suppressed(name) {
		return nil
	}
	done := u.handle.Busy()
	defer done()

	u.mu.Lock()
	defer u.mu.Unlock()
	target := u.record
	if target == nil {
		target = &u.draft
	}
	switch name {
	case "Shell":
		if s, ok := value.(string); ok {
			target.Shell = s
		}
	case "Realname":
		if s, ok := value.(string); ok {
			target.Gecos.Realname = s
		}
	}
	return nil
}

// AddUser persists the staged draft fields as a new user row, transitions
// the handle to Attached, and emits userAdded.
func (u *UserHandleImpl) AddUser(ctx context.Context) (uint32, error) {
	done := u.handle.Busy()
	defer done()

	u.mu.Lock()
	req := engine.AddUserRequest{
		Username: u.draft.Username,
		Type:     u.draft.Type,
		Gecos:    u.draft.Gecos,
		Shell:    u.draft.Shell,
	}
	u.mu.Unlock()

	created, err := u.facade.engine.AddUser(req, u.handle.Caller)
	if err != nil {
		return 0, err
	}

	u.mu.Lock()
	u.record = created
	u.mu.Unlock()
	u.handle = u.facade.broker.Attach(u.handle, created.UID)

	if u.facade.emit != nil {
		u.facade.emit.EmitSignal(u.handle.ObjectPath, "userAdded", created.UID)
	}
	logger.Info("userAdded signal emitted", logger.UID(created.UID))
	return created.UID, nil
}

// DeleteUser deletes the persisted user and schedules deferred handle
// disposal so the RPC reply completes first.
func (u *UserHandleImpl) DeleteUser(ctx context.Context, removeHome bool) error {
	done := u.handle.Busy()
	u.mu.Lock()
	rec := u.record
	u.mu.Unlock()
	if rec == nil {
		done()
		return errs.UserNotFound("draft handle has no persisted account")
	}

	err := u.facade.engine.DeleteUser(rec.Username, removeHome, u.handle.Caller)
	done()
	if err != nil {
		return err
	}

	if u.facade.emit != nil {
		u.facade.emit.EmitSignal(u.handle.ObjectPath, "userDeleted", rec.UID)
	}
	u.handle.RequestDispose()
	return nil
}

// UpdateUser pushes the handle's currently mirrored fields to the engine
// as an update.
func (u *UserHandleImpl) UpdateUser(ctx context.Context) error {
	done := u.handle.Busy()
	defer done()

	u.mu.Lock()
	rec := u.record
	u.mu.Unlock()
	if rec == nil {
		return errs.UserNotFound("draft handle has no persisted account")
	}
	shell := rec.Shell
	gecos := rec.Gecos

	updated, err := u.facade.engine.UpdateUser(rec.Username, engine.UserUpdate{
		Shell: &shell,
		Gecos: &gecos,
	}, u.handle.Caller)
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.record = updated
	u.mu.Unlock()

	if u.facade.emit != nil {
		u.facade.emit.EmitSignal(u.handle.ObjectPath, "userUpdated", updated.UID)
	}
	return nil
}
