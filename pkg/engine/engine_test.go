package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/o1-security/gumd/internal/config"
	"github.com/o1-security/gumd/pkg/account"
	"github.com/o1-security/gumd/pkg/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	accounts := store.NewAccounts(store.Paths{
		Passwd:  filepath.Join(dir, "passwd"),
		Shadow:  filepath.Join(dir, "shadow"),
		Group:   filepath.Join(dir, "group"),
		Gshadow: filepath.Join(dir, "gshadow"),
	}, nil)

	cfg := &config.General{
		HomeDir:     filepath.Join(dir, "home"),
		Shell:       "/bin/bash",
		SkelDir:     filepath.Join(dir, "skel"),
		UIDMin:      1000,
		UIDMax:      60000,
		SysUIDMin:   100,
		SysUIDMax:   999,
		GIDMin:      1000,
		GIDMax:      60000,
		SysGIDMin:   100,
		SysGIDMax:   999,
		PassMinDays: 0,
		PassMaxDays: 99999,
		PassWarnAge: 7,
		Umask:       0022,
	}

	return New(accounts, cfg, nil, nil)
}

func TestAddUserSystemType(t *testing.T) {
	e := newTestEngine(t)

	u, err := e.AddUser(AddUserRequest{Username: "svc", Type: account.UserTypeSystem, Secret: "s3cret"}, "test")
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	if u.UID < 100 || u.UID > 999 {
		t.Errorf("UID = %d, want in [100, 999]", u.UID)
	}
	if u.Home != "" {
		t.Errorf("Home = %q, want empty for a system account", u.Home)
	}
	if u.HashedSecret == "" {
		t.Error("HashedSecret is empty, want a hash")
	}
}

func TestAddUserDuplicateRejected(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.AddUser(AddUserRequest{Username: "svc", Type: account.UserTypeSystem}, "test"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	if _, err := e.AddUser(AddUserRequest{Username: "svc", Type: account.UserTypeSystem}, "test"); err == nil {
		t.Error("AddUser() of a duplicate username returned nil error")
	}
}

func TestAddUserInvalidTypeRejected(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddUser(AddUserRequest{Username: "svc", Type: "bogus"}, "test"); err == nil {
		t.Error("AddUser() with an invalid type returned nil error")
	}
}

func TestAddUserPreferredUID(t *testing.T) {
	e := newTestEngine(t)
	preferred := uint32(500)

	u, err := e.AddUser(AddUserRequest{Username: "svc", Type: account.UserTypeSystem, PreferredUID: &preferred}, "test")
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	if u.UID != 500 {
		t.Errorf("UID = %d, want preferred 500", u.UID)
	}
}

func TestAddUserRollsBackOnExtraGroupFailure(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.AddUser(AddUserRequest{
		Username:    "svc",
		Type:        account.UserTypeSystem,
		ExtraGroups: []string{"doesnotexist"},
	}, "test")
	if err == nil {
		t.Fatal("AddUser() with a nonexistent extra group returned nil error")
	}

	if _, found, _ := e.accounts.GetUserByName("svc"); found {
		t.Error("passwd/shadow rows survived a rolled-back AddUser")
	}
}

func TestUpdateUserNoChanges(t *testing.T) {
	e := newTestEngine(t)
	e.AddUser(AddUserRequest{Username: "svc", Type: account.UserTypeSystem}, "test")

	if _, err := e.UpdateUser("svc", UserUpdate{}, "test"); err == nil {
		t.Error("UpdateUser() with no fields set returned nil error, want NoChanges")
	}
}

func TestUpdateUserShell(t *testing.T) {
	e := newTestEngine(t)
	e.AddUser(AddUserRequest{Username: "svc", Type: account.UserTypeSystem}, "test")

	shell := "/bin/zsh"
	u, err := e.UpdateUser("svc", UserUpdate{Shell: &shell}, "test")
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if u.Shell != shell {
		t.Errorf("Shell = %q, want %q", u.Shell, shell)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	e := newTestEngine(t)
	if err := e.DeleteUser("nobody", false, "test"); err == nil {
		t.Error("DeleteUser() of a nonexistent user returned nil error")
	}
}

func TestDeleteUserPurgesGroupMembership(t *testing.T) {
	e := newTestEngine(t)
	e.AddUser(AddUserRequest{Username: "alice", Type: account.UserTypeSystem}, "test")
	e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test")
	u, _, _ := e.GetUserByName("alice")
	if err := e.AddMember("wheel", u.UID, false, "test"); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	if err := e.DeleteUser("alice", false, "test"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	g, _, _ := e.GetGroupByName("wheel")
	if g.HasMember("alice") {
		t.Error("alice still listed as a wheel member after DeleteUser")
	}
}

func TestDeleteUserRollsBackGroupPurgeOnHomeRemoveFailure(t *testing.T) {
	e := newTestEngine(t)
	e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test")
	u, err := e.AddUser(AddUserRequest{Username: "alice", Type: account.UserTypeNormal, Secret: "s3cret"}, "test")
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	if err := e.AddMember("wheel", u.UID, true, "test"); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	// Break the home prefix so the final homedir.Remove step fails,
	// forcing DeleteUser to roll back the group purge and primary-group
	// deletion that already ran ahead of it.
	if err := os.RemoveAll(e.cfg.HomeDir); err != nil {
		t.Fatalf("RemoveAll(HomeDir) error = %v", err)
	}

	if err := e.DeleteUser("alice", true, "test"); err == nil {
		t.Fatal("DeleteUser() with a broken home prefix returned nil error")
	}

	if _, found, _ := e.accounts.GetUserByName("alice"); !found {
		t.Error("alice's passwd/shadow rows were not restored after rollback")
	}
	g, _, _ := e.GetGroupByName("wheel")
	if !g.HasMember("alice") || !g.HasAdministrator("alice") {
		t.Error("alice's wheel membership/administrator status was not restored after rollback")
	}
	if _, found, _ := e.GetGroupByName("alice"); !found {
		t.Error("alice's primary group was not restored after rollback")
	}
}

func TestAddGroupAndDelete(t *testing.T) {
	e := newTestEngine(t)

	g, err := e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test")
	if err != nil {
		t.Fatalf("AddGroup() error = %v", err)
	}
	if g.GID < 100 || g.GID > 999 {
		t.Errorf("GID = %d, want in [100, 999]", g.GID)
	}

	if err := e.DeleteGroup("wheel", "test"); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}
	if _, found, _ := e.GetGroupByName("wheel"); found {
		t.Error("wheel still present after DeleteGroup")
	}
}

func TestAddGroupDuplicateRejected(t *testing.T) {
	e := newTestEngine(t)
	e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test")
	if _, err := e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test"); err == nil {
		t.Error("AddGroup() of a duplicate name returned nil error")
	}
}

func TestDeleteGroupInUseRejected(t *testing.T) {
	e := newTestEngine(t)
	u, err := e.AddUser(AddUserRequest{Username: "alice", Type: account.UserTypeSystem}, "test")
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	gid := u.GID
	if _, err := e.AddGroup(AddGroupRequest{Name: "shared", Type: account.GroupTypeSystem, PreferredGID: &gid}, "test"); err != nil {
		t.Fatalf("AddGroup() error = %v", err)
	}

	if err := e.DeleteGroup("shared", "test"); err == nil {
		t.Errorf("DeleteGroup() on a group sharing alice's primary gid (%d) returned nil error, want GroupInUse", gid)
	}
}

func TestAddAndDeleteMember(t *testing.T) {
	e := newTestEngine(t)
	e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test")
	u, _ := e.AddUser(AddUserRequest{Username: "alice", Type: account.UserTypeSystem}, "test")

	if err := e.AddMember("wheel", u.UID, true, "test"); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	g, _, _ := e.GetGroupByName("wheel")
	if !g.HasMember("alice") || !g.HasAdministrator("alice") {
		t.Errorf("wheel group = %+v, want alice as member and administrator", g)
	}

	if err := e.AddMember("wheel", u.UID, false, "test"); err == nil {
		t.Error("AddMember() of an already-present member returned nil error")
	}

	if err := e.DeleteMember("wheel", u.UID, "test"); err != nil {
		t.Fatalf("DeleteMember() error = %v", err)
	}
	g, _, _ = e.GetGroupByName("wheel")
	if g.HasMember("alice") {
		t.Error("alice still a member of wheel after DeleteMember")
	}

	if err := e.DeleteMember("wheel", u.UID, "test"); err == nil {
		t.Error("DeleteMember() of a non-member returned nil error")
	}
}

func TestAddMemberUnknownUID(t *testing.T) {
	e := newTestEngine(t)
	e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test")

	if err := e.AddMember("wheel", 99999, false, "test"); err == nil {
		t.Error("AddMember() with an unknown uid returned nil error")
	}
}

func TestListUsersAndGroups(t *testing.T) {
	e := newTestEngine(t)
	e.AddUser(AddUserRequest{Username: "alice", Type: account.UserTypeSystem}, "test")
	e.AddUser(AddUserRequest{Username: "bob", Type: account.UserTypeSystem}, "test")
	e.AddGroup(AddGroupRequest{Name: "wheel", Type: account.GroupTypeSystem}, "test")

	users, err := e.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListUsers() returned %d users, want 2", len(users))
	}

	groups, err := e.ListGroups()
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("ListGroups() returned %d groups, want 1", len(groups))
	}
}
