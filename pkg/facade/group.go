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

// CreateNewGroup mints a draft group handle for caller.
func (f *Facade) CreateNewGroup(ctx context.Context, caller busiface.CallerID) (string, error) {
	h := f.broker.NewDraft(string(caller), broker.KindGroup)
	return h.ObjectPath, nil
}

// GetGroup returns the handle for (caller, gid), minting one if needed.
func (f *Facade) GetGroup(ctx context.Context, caller busiface.CallerID, gid uint32) (string, error) {
	g, found, err := f.engine.GetGroupByID(gid)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errs.GroupNotFound(fmt.Sprintf("gid %d", gid))
	}
	h := f.broker.GetOrCreate(string(caller), g.GID, broker.KindGroup)
	return h.ObjectPath, nil
}

// GetGroupByName returns the handle for (caller, gid-of-name).
func (f *Facade) GetGroupByName(ctx context.Context, caller busiface.CallerID, name string) (string, error) {
	g, found, err := f.engine.GetGroupByName(name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errs.GroupNotFound(name)
	}
	h := f.broker.GetOrCreate(string(caller), g.GID, broker.KindGroup)
	return h.ObjectPath, nil
}

// GroupHandleImpl backs the busiface.GroupHandle surface for one Handle.
type GroupHandleImpl struct {
	mu     sync.Mutex
	handle *broker.Handle
	facade *Facade
	guard  MirrorGuard
	draft  account.Group
	record *account.Group
}

// NewGroupHandleImpl wraps handle with the mirror/RPC glue.
func NewGroupHandleImpl(h *broker.Handle, f *Facade) *GroupHandleImpl {
	return &GroupHandleImpl{handle: h, facade: f}
}

// Properties returns the current mirrored record.
func (g *GroupHandleImpl) Properties(ctx context.Context) (busiface.GroupProperties, error) {
	done := g.handle.Busy()
	defer done()

	g.mu.Lock()
	defer g.mu.Unlock()
	rec := g.record
	if rec == nil {
		rec = &g.draft
	}
	return busiface.GroupProperties{
		GID: rec.GID, Name: rec.Name, Members: rec.Members, Admins: rec.Administrators,
	}, nil
}

// SetProperty mirrors an RPC-side property set, guarded against echo.
func (g *GroupHandleImpl) SetProperty(ctx context.Context, name string, value any) error {
	if g.guard.Suppressed(name) {
		return nil
	}
	done := g.handle.Busy()
	defer done()

	g.mu.Lock()
	defer g.mu.Unlock()
	target := g.record
	if target == nil {
		target = &g.draft
	}
	if name == "Name" {
		if s, ok := value.(string); ok {
			target.Name = s
		}
	}
	return nil
}

// AddGroup persists the staged draft as a new group row.
func (g *GroupHandleImpl) AddGroup(ctx context.Context, preferredGID uint32) (uint32, error) {
	done := g.handle.Busy()
	defer done()

	g.mu.Lock()
	req := engine.AddGroupRequest{Name: g.draft.Name, Type: g.draft.Type}
	if preferredGID != 0 {
		req.PreferredGID = &preferredGID
	}
	g.mu.Unlock()

	created, err := g.facade.engine.AddGroup(req, g.handle.Caller)
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	g.record = created
	g.mu.Unlock()
	g.handle = g.facade.broker.Attach(g.handle, created.GID)

	if g.facade.emit != nil {
		g.facade.emit.EmitSignal(g.handle.ObjectPath, "groupAdded", created.GID)
	}
	logger.Info("groupAdded signal emitted", logger.GID(created.GID))
	return created.GID, nil
}

// DeleteGroup deletes the persisted group and schedules deferred
// disposal.
func (g *GroupHandleImpl) DeleteGroup(ctx context.Context) error {
	done := g.handle.Busy()
	g.mu.Lock()
	rec := g.record
	g.mu.Unlock()
	if rec == nil {
		done()
		return errs.GroupNotFound("draft handle has no persisted group")
	}

	err := g.facade.engine.DeleteGroup(rec.Name, g.handle.Caller)
	done()
	if err != nil {
		return err
	}

	if g.facade.emit != nil {
		g.facade.emit.EmitSignal(g.handle.ObjectPath, "groupDeleted", rec.GID)
	}
	g.handle.RequestDispose()
	return nil
}

// UpdateGroup pushes the handle's mirrored fields to the engine.
func (g *GroupHandleImpl) UpdateGroup(ctx context.Context) error {
	done := g.handle.Busy()
	defer done()

	g.mu.Lock()
	rec := g.record
	g.mu.Unlock()
	if rec == nil {
		return errs.GroupNotFound("draft handle has no persisted group")
	}

	updated, err := g.facade.engine.UpdateGroup(rec.Name, engine.GroupUpdate{}, g.handle.Caller)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.record = updated
	g.mu.Unlock()

	if g.facade.emit != nil {
		g.facade.emit.EmitSignal(g.handle.ObjectPath, "groupUpdated", updated.GID)
	}
	return nil
}

// AddMember adds uid to the group, surfacing groupUpdated on success.
func (g *GroupHandleImpl) AddMember(ctx context.Context, uid uint32, asAdmin bool) error {
	done := g.handle.Busy()
	defer done()

	g.mu.Lock()
	rec := g.record
	g.mu.Unlock()
	if rec == nil {
		return errs.GroupNotFound("draft handle has no persisted group")
	}
	if err := g.facade.engine.AddMember(rec.Name, uid, asAdmin, g.handle.Caller); err != nil {
		return err
	}
	if g.facade.emit != nil {
		g.facade.emit.EmitSignal(g.handle.ObjectPath, "groupUpdated", rec.GID)
	}
	return nil
}

// DeleteMember removes uid from the group, surfacing groupUpdated on
// success.
func (g *GroupHandleImpl) DeleteMember(ctx context.Context, uid uint32) error {
	done := g.handle.Busy()
	defer done()

	g.mu.Lock()
	rec := g.record
	g.mu.Unlock()
	if rec == nil {
		return errs.GroupNotFound("draft handle has no persisted group")
	}
	if err := g.facade.engine.DeleteMember(rec.Name, uid, g.handle.Caller); err != nil {
		return err
	}
	if g.facade.emit != nil {
		g.facade.emit.EmitSignal(g.handle.ObjectPath, "groupUpdated", rec.GID)
	}
	return nil
}
