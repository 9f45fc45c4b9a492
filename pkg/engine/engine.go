// Package engine implements the account lifecycle state machine:
// validation, ID allocation, password hashing, home-directory
// provisioning, and group-membership reconciliation, with rollback when a
// step fails partway through a transaction — SPEC_FULL.md §4.5.
package engine

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/o1-security/gumd/internal/config"
	"github.com/o1-security/gumd/internal/logger"
	"github.com/o1-security/gumd/pkg/account"
	"github.com/o1-security/gumd/pkg/audit"
	"github.com/o1-security/gumd/pkg/errs"
	"github.com/o1-security/gumd/pkg/hasher"
	"github.com/o1-security/gumd/pkg/homedir"
	"github.com/o1-security/gumd/pkg/idalloc"
	"github.com/o1-security/gumd/pkg/metrics"
	"github.com/o1-security/gumd/pkg/store"
	"github.com/o1-security/gumd/pkg/validator"
)

// Engine composes the store, hasher, validator, and ID allocator into the
// transactional user/group operations the façade drives.
type Engine struct {
	accounts *store.Accounts
	cfg      *config.General
	metrics  *metrics.EngineMetrics
	audit    *audit.Log
}

// New builds an Engine over accounts, configured by cfg. auditLog may be
// nil, in which case mutations simply aren't journaled.
func New(accounts *store.Accounts, cfg *config.General, m *metrics.EngineMetrics, auditLog *audit.Log) *Engine {
	return &Engine{accounts: accounts, cfg: cfg, metrics: m, audit: auditLog}
}

// compensation is one undo closure, pushed after each successful
// sub-step and run in reverse order on later failure.
type compensation func()

// txn tracks the growing compensation stack for one transaction.
type txn struct {
	undo []compensation
}

func (t *txn) push(fn compensation) {
	t.undo = append(t.undo, fn)
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

func (e *Engine) observe(operation string, start time.Time, err *error) {
	outcome := metrics.OutcomeOK
	if *err != nil {
		outcome = metrics.OutcomeRolledBack
	}
	e.metrics.Observe(operation, outcome, time.Since(start))
}

// recordAudit journals one mutation attempt. A nil Engine.audit (journaling
// disabled) makes this a no-op; a write failure is logged, not propagated,
// since the mutation itself already succeeded or failed on its own terms.
func (e *Engine) recordAudit(operation, subject, caller string, err *error) {
	if e.audit == nil {
		return
	}
	outcome := "ok"
	if *err != nil {
		var aerr *errs.Error
		if errors.As(*err, &aerr) {
			outcome = string(aerr.Code)
		} else {
			outcome = "error"
		}
	}
	entry := audit.Entry{
		Timestamp: time.Now(),
		Operation: operation,
		Subject:   subject,
		CallerID:  caller,
		Outcome:   outcome,
	}
	if rerr := e.audit.Record(entry); rerr != nil {
		logger.Error("audit record failed", "operation", operation, "subject", subject, "error", rerr)
	}
}

// AddUserRequest carries the fields a caller supplies for a new user; zero
// values mean "use configured defaults."
type AddUserRequest struct {
	Username        string
	Type            account.UserType
	PreferredUID    *uint32
	Gecos           account.Gecos
	Shell           string
	Secret          string
	ExtraGroups     []string
}

// AddUser runs the full user-creation transaction described in
// SPEC_FULL.md §4.5: validate, allocate ids, hash the secret, append rows,
// materialize the home directory, and join configured supplementary
// groups — rolling every completed sub-step back if a later one fails.
func (e *Engine) AddUser(req AddUserRequest, caller string) (u *account.User, err error) {
	start := time.Now()
	defer e.observe("add_user", start, &err)
	defer e.recordAudit("add_user", req.Username, caller, &err)

	if err = validator.Name(req.Username); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, errs.InvalidUserType(string(req.Type))
	}
	if _, found, gerr := e.accounts.GetUserByName(req.Username); gerr != nil {
		return nil, gerr
	} else if found {
		return nil, errs.UserAlreadyExists(req.Username)
	}

	t := &txn{}
	defer func() {
		if err != nil {
			t.rollback()
		}
	}()

	uidRange := e.uidRange(req.Type)
	uid, err := e.allocateUID(uidRange, req.PreferredUID)
	if err != nil {
		return nil, err
	}

	gid := uid // normal/admin users get a same-name primary group with gid == uid
	if req.Type == account.UserTypeSystem || req.Type == account.UserTypeGuest {
		gid, err = e.allocateGID(e.gidRange(req.Type), nil)
		if err != nil {
			return nil, err
		}
	}

	shell := req.Shell
	if shell == "" {
		shell = e.cfg.Shell
	}
	home := ""
	if req.Type.HasHome() {
		home = e.cfg.HomeDir + "/" + req.Username
	}

	secretHash, err := hasher.Hash(hasher.SHA512, req.Secret)
	if err != nil {
		return nil, err
	}
	now := daysSinceEpoch(time.Now())

	u = &account.User{
		Username:      req.Username,
		UID:           uid,
		GID:           gid,
		Gecos:         req.Gecos,
		Home:          home,
		Shell:         shell,
		Type:          req.Type,
		HashedSecret:  secretHash,
		LastChangeDay: &now,
		MinDays:       int64Ptr(e.cfg.PassMinDays),
		MaxDays:       int64Ptr(e.cfg.PassMaxDays),
		WarnDays:      int64Ptr(e.cfg.PassWarnAge),
	}

	// Pushed before AppendUser so a shadow append failing after the passwd
	// append succeeded still unwinds the passwd row.
	t.push(func() { _ = e.accounts.DeleteUserByName(u.Username) })
	if err = e.accounts.AppendUser(u); err != nil {
		return nil, err
	}

	if req.Type.HasHome() {
		primary := &account.Group{Name: req.Username, GID: gid, Type: account.GroupTypeUser}
		if err = e.accounts.AppendGroup(primary); err != nil {
			return nil, err
		}
		t.push(func() { _ = e.accounts.DeleteGroupByName(primary.Name) })

		if err = homedir.Provision(e.cfg.SkelDir, home, int(uid), int(gid), os.FileMode(e.cfg.Umask)); err != nil {
			return nil, err
		}
		t.push(func() { _ = homedir.Remove(home, e.cfg.HomeDir) })
	}

	groups := req.ExtraGroups
	if len(groups) == 0 {
		groups = e.cfg.DefaultUsrGroups
	}
	for _, gname := range groups {
		if err = e.addMemberByName(gname, req.Username, false); err != nil {
			return nil, err
		}
		name := gname
		t.push(func() { _ = e.deleteMemberByName(name, req.Username) })
	}

	logger.Info("user added", logger.Username(u.Username), logger.UID(u.UID), logger.GID(u.GID))
	return u, nil
}

// UserUpdate carries only the fields a caller wants changed; nil/empty
// fields retain the existing value.
type UserUpdate struct {
	Gecos    *account.Gecos
	Home     *string
	Shell    *string
	Secret   *string
}

// UpdateUser loads the existing user, applies only the provided fields,
// and fails NoChanges if nothing differs. Username, UID, and primary GID
// are immutable after creation.
func (e *Engine) UpdateUser(username string, upd UserUpdate, caller string) (u *account.User, err error) {
	start := time.Now()
	defer e.observe("update_user", start, &err)
	defer e.recordAudit("update_user", username, caller, &err)

	if err = validator.Name(username); err != nil {
		return nil, err
	}

	changed := false
	_, err = e.accounts.UpdateUserByName(username, func(existing *account.User) error {
		if upd.Gecos != nil {
			existing.Gecos = *upd.Gecos
			changed = true
		}
		if upd.Home != nil {
			existing.Home = *upd.Home
			changed = true
		}
		if upd.Shell != nil {
			existing.Shell = *upd.Shell
			changed = true
		}
		if upd.Secret != nil {
			hash, herr := hasher.Hash(hasher.SHA512, *upd.Secret)
			if herr != nil {
				return herr
			}
			existing.HashedSecret = hash
			now := daysSinceEpoch(time.Now())
			existing.LastChangeDay = &now
			changed = true
		}
		if !changed {
			return errs.NoChanges()
		}
		u = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the user, purges it from every group's member and
// administrator list, removes its same-name primary group if it is now
// empty, and optionally deletes its home directory.
func (e *Engine) DeleteUser(username string, removeHome bool, caller string) (err error) {
	start := time.Now()
	defer e.observe("delete_user", start, &err)
	defer e.recordAudit("delete_user", username, caller, &err)

	u, found, err := e.accounts.GetUserByName(username)
	if err != nil {
		return err
	}
	if !found {
		return errs.UserNotFound(username)
	}

	t := &txn{}
	defer func() {
		if err != nil {
			t.rollback()
		}
	}()

	if err = e.accounts.DeleteUserByName(username); err != nil {
		return err
	}
	t.push(func() { _ = e.accounts.AppendUser(u) })

	if err = e.purgeFromAllGroups(t, username); err != nil {
		return err
	}

	if primary, found, gerr := e.accounts.GetGroupByName(username); gerr == nil && found && primary.GID == u.GID {
		if len(primary.Members) == 0 {
			if err = e.accounts.DeleteGroupByName(username); err != nil {
				return err
			}
			primaryCopy := primary.Clone()
			t.push(func() { _ = e.accounts.AppendGroup(primaryCopy) })
		}
	}

	if removeHome && u.Home != "" {
		if err = homedir.Remove(u.Home, e.cfg.HomeDir); err != nil {
			return err
		}
	}

	logger.Info("user deleted", logger.Username(username))
	return nil
}

// purgeFromAllGroups removes username from every group's member and
// administrator list, pushing a compensation onto t for each group it
// actually changes so a later step's failure can restore them.
func (e *Engine) purgeFromAllGroups(t *txn, username string) error {
	return e.accounts.Group.Scan(func(rec store.Record) (bool, error) {
		name := rec.Field(0)
		var wasMember, wasAdmin bool
		_, err := e.accounts.UpdateGroupByName(name, func(g *account.Group) error {
			wasMember = g.HasMember(username)
			wasAdmin = g.HasAdministrator(username)
			g.RemoveUser(username)
			return nil
		})
		if err != nil {
			return false, err
		}
		if wasMember || wasAdmin {
			groupName, member, admin := name, wasMember, wasAdmin
			t.push(func() {
				_, _ = e.accounts.UpdateGroupByName(groupName, func(g *account.Group) error {
					if member && !g.HasMember(username) {
						g.Members = append(g.Members, username)
					}
					if admin && !g.HasAdministrator(username) {
						g.Administrators = append(g.Administrators, username)
					}
					return nil
				})
			})
		}
		return true, nil
	})
}

// AddGroupRequest carries the fields for a new group.
type AddGroupRequest struct {
	Name         string
	Type         account.GroupType
	PreferredGID *uint32
	Secret       string
}

// AddGroup allocates a gid in the type's configured range and appends the
// group and gshadow rows.
func (e *Engine) AddGroup(req AddGroupRequest, caller string) (g *account.Group, err error) {
	start := time.Now()
	defer e.observe("add_group", start, &err)
	defer e.recordAudit("add_group", req.Name, caller, &err)

	if err = validator.Name(req.Name); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, errs.InvalidGroupType(string(req.Type))
	}
	if _, found, gerr := e.accounts.GetGroupByName(req.Name); gerr != nil {
		return nil, gerr
	} else if found {
		return nil, errs.GroupAlreadyExists(req.Name)
	}

	gid, err := e.allocateGID(e.groupGIDRange(req.Type), req.PreferredGID)
	if err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(hasher.SHA512, req.Secret)
	if err != nil {
		return nil, err
	}

	g = &account.Group{Name: req.Name, GID: gid, Type: req.Type, HashedSecret: hash}
	if err = e.accounts.AppendGroup(g); err != nil {
		return nil, err
	}

	logger.Info("group added", logger.Group(g.Name), logger.GID(g.GID))
	return g, nil
}

// GroupUpdate carries only the fields a caller wants changed.
type GroupUpdate struct {
	Secret *string
}

// UpdateGroup applies upd to the named group; renaming is rejected by
// omission (there is no Name field on GroupUpdate).
func (e *Engine) UpdateGroup(name string, upd GroupUpdate, caller string) (g *account.Group, err error) {
	start := time.Now()
	defer e.observe("update_group", start, &err)
	defer e.recordAudit("update_group", name, caller, &err)

	changed := false
	_, err = e.accounts.UpdateGroupByName(name, func(existing *account.Group) error {
		if upd.Secret != nil {
			hash, herr := hasher.Hash(hasher.SHA512, *upd.Secret)
			if herr != nil {
				return herr
			}
			existing.HashedSecret = hash
			changed = true
		}
		if !changed {
			return errs.NoChanges()
		}
		g = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGroup removes the group, failing GroupInUse if any user's primary
// gid still points to it (invariant I4).
func (e *Engine) DeleteGroup(name string, caller string) (err error) {
	start := time.Now()
	defer e.observe("delete_group", start, &err)
	defer e.recordAudit("delete_group", name, caller, &err)

	g, found, err := e.accounts.GetGroupByName(name)
	if err != nil {
		return err
	}
	if !found {
		return errs.GroupNotFound(name)
	}

	inUse := false
	if serr := e.accounts.Passwd.Scan(func(rec store.Record) (bool, error) {
		if rec.Field(3) == strconv.FormatUint(uint64(g.GID), 10) {
			inUse = true
			return false, nil
		}
		return true, nil
	}); serr != nil {
		return serr
	}
	if inUse {
		return errs.GroupInUse(name)
	}

	if err = e.accounts.DeleteGroupByName(name); err != nil {
		return err
	}
	logger.Info("group deleted", logger.Group(name))
	return nil
}

// AddMember resolves uid to a username and appends it to group's member
// list (and admin list if asAdmin), failing UserNotFound or AlreadyMember.
func (e *Engine) AddMember(group string, uid uint32, asAdmin bool, caller string) (err error) {
	start := time.Now()
	defer e.observe("add_member", start, &err)
	defer e.recordAudit("add_member", group, caller, &err)

	u, found, err := e.accounts.GetUserByUID(uid)
	if err != nil {
		return err
	}
	if !found {
		return errs.UserNotFound(strconv.FormatUint(uint64(uid), 10))
	}
	return e.addMemberByName(group, u.Username, asAdmin)
}

func (e *Engine) addMemberByName(group, username string, asAdmin bool) error {
	_, err := e.accounts.UpdateGroupByName(group, func(g *account.Group) error {
		if g.HasMember(username) {
			return errs.AlreadyMember(username, group)
		}
		g.Members = append(g.Members, username)
		if asAdmin {
			g.Administrators = append(g.Administrators, username)
		}
		return nil
	})
	return err
}

// DeleteMember resolves uid to a username and removes it from group's
// member and admin lists, failing UserNotFound or NotAMember.
func (e *Engine) DeleteMember(group string, uid uint32, caller string) (err error) {
	start := time.Now()
	defer e.observe("delete_member", start, &err)
	defer e.recordAudit("delete_member", group, caller, &err)

	u, found, err := e.accounts.GetUserByUID(uid)
	if err != nil {
		return err
	}
	if !found {
		return errs.UserNotFound(strconv.FormatUint(uint64(uid), 10))
	}
	return e.deleteMemberByName(group, u.Username)
}

func (e *Engine) deleteMemberByName(group, username string) error {
	_, err := e.accounts.UpdateGroupByName(group, func(g *account.Group) error {
		if !g.HasMember(username) && !g.HasAdministrator(username) {
			return errs.NotAMember(username, group)
		}
		g.RemoveUser(username)
		return nil
	})
	return err
}

// GetUserByName returns the joined user record for name.
func (e *Engine) GetUserByName(name string) (*account.User, bool, error) {
	return e.accounts.GetUserByName(name)
}

// GetUserByID returns the joined user record for uid.
func (e *Engine) GetUserByID(uid uint32) (*account.User, bool, error) {
	return e.accounts.GetUserByUID(uid)
}

// GetGroupByName returns the joined group record for name.
func (e *Engine) GetGroupByName(name string) (*account.Group, bool, error) {
	return e.accounts.GetGroupByName(name)
}

// GetGroupByID returns the joined group record for gid.
func (e *Engine) GetGroupByID(gid uint32) (*account.Group, bool, error) {
	return e.accounts.GetGroupByGID(gid)
}

// ListUsers returns every user row, joined with its shadow counterpart.
func (e *Engine) ListUsers() ([]*account.User, error) {
	var users []*account.User
	err := e.accounts.Passwd.Scan(func(rec store.Record) (bool, error) {
		u, found, gerr := e.accounts.GetUserByName(rec.Field(0))
		if gerr != nil {
			return false, gerr
		}
		if found {
			users = append(users, u)
		}
		return true, nil
	})
	return users, err
}

// ListGroups returns every group row, joined with its gshadow counterpart.
func (e *Engine) ListGroups() ([]*account.Group, error) {
	var groups []*account.Group
	err := e.accounts.Group.Scan(func(rec store.Record) (bool, error) {
		g, found, gerr := e.accounts.GetGroupByName(rec.Field(0))
		if gerr != nil {
			return false, gerr
		}
		if found {
			groups = append(groups, g)
		}
		return true, nil
	})
	return groups, err
}

func (e *Engine) uidRange(t account.UserType) idalloc.Range {
	if t == account.UserTypeSystem {
		return idalloc.Range{Min: e.cfg.SysUIDMin, Max: e.cfg.SysUIDMax}
	}
	return idalloc.Range{Min: e.cfg.UIDMin, Max: e.cfg.UIDMax}
}

func (e *Engine) gidRange(t account.UserType) idalloc.Range {
	if t == account.UserTypeSystem {
		return idalloc.Range{Min: e.cfg.SysGIDMin, Max: e.cfg.SysGIDMax}
	}
	return idalloc.Range{Min: e.cfg.GIDMin, Max: e.cfg.GIDMax}
}

func (e *Engine) groupGIDRange(t account.GroupType) idalloc.Range {
	if t == account.GroupTypeSystem {
		return idalloc.Range{Min: e.cfg.SysGIDMin, Max: e.cfg.SysGIDMax}
	}
	return idalloc.Range{Min: e.cfg.GIDMin, Max: e.cfg.GIDMax}
}

func (e *Engine) allocateUID(r idalloc.Range, preferred *uint32) (uint32, error) {
	used := map[uint32]struct{}{}
	err := e.accounts.Passwd.Scan(func(rec store.Record) (bool, error) {
		id, perr := strconv.ParseUint(rec.Field(2), 10, 32)
		if perr == nil {
			used[uint32(id)] = struct{}{}
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return idalloc.Allocate(r, used, preferred)
}

func (e *Engine) allocateGID(r idalloc.Range, preferred *uint32) (uint32, error) {
	used := map[uint32]struct{}{}
	err := e.accounts.Group.Scan(func(rec store.Record) (bool, error) {
		id, perr := strconv.ParseUint(rec.Field(2), 10, 32)
		if perr == nil {
			used[uint32(id)] = struct{}{}
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return idalloc.Allocate(r, used, preferred)
}

func daysSinceEpoch(t time.Time) int64 {
	return t.Unix() / 86400
}

func int64Ptr(v int64) *int64 { return &v }
