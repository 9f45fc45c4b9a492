package store

import (
	"path/filepath"
	"testing"

	"github.com/o1-security/gumd/pkg/account"
)

func newTestAccounts(t *testing.T) *Accounts {
	t.Helper()
	dir := t.TempDir()
	return NewAccounts(Paths{
		Passwd:  filepath.Join(dir, "passwd"),
		Shadow:  filepath.Join(dir, "shadow"),
		Group:   filepath.Join(dir, "group"),
		Gshadow: filepath.Join(dir, "gshadow"),
	}, nil)
}

func TestAccountsUserLifecycle(t *testing.T) {
	a := newTestAccounts(t)
	u := &account.User{Username: "alice", UID: 1000, GID: 1000, Home: "/home/alice", Shell: "/bin/bash"}

	if err := a.AppendUser(u); err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}

	got, ok, err := a.GetUserByName("alice")
	if err != nil {
		t.Fatalf("GetUserByName() error = %v", err)
	}
	if !ok {
		t.Fatal("GetUserByName(alice) not found")
	}
	if got.UID != 1000 || got.Home != "/home/alice" {
		t.Errorf("got user = %+v", got)
	}

	got, ok, err = a.GetUserByUID(1000)
	if err != nil || !ok {
		t.Fatalf("GetUserByUID(1000) ok=%v err=%v", ok, err)
	}
	if got.Username != "alice" {
		t.Errorf("GetUserByUID() username = %q, want alice", got.Username)
	}

	found, err := a.UpdateUserByName("alice", func(u *account.User) error {
		u.Shell = "/bin/zsh"
		u.HashedSecret = "$6$s$h"
		return nil
	})
	if err != nil || !found {
		t.Fatalf("UpdateUserByName() found=%v err=%v", found, err)
	}

	got, _, _ = a.GetUserByName("alice")
	if got.Shell != "/bin/zsh" {
		t.Errorf("Shell = %q, want /bin/zsh", got.Shell)
	}
	if got.HashedSecret != "$6$s$h" {
		t.Errorf("HashedSecret = %q, want $6$s$h", got.HashedSecret)
	}

	if err := a.DeleteUserByName("alice"); err != nil {
		t.Fatalf("DeleteUserByName() error = %v", err)
	}
	_, ok, err = a.GetUserByName("alice")
	if err != nil {
		t.Fatalf("GetUserByName() after delete error = %v", err)
	}
	if ok {
		t.Error("alice still present after delete")
	}
}

func TestAccountsUpdateUserByNameNotFound(t *testing.T) {
	a := newTestAccounts(t)
	found, err := a.UpdateUserByName("nobody", func(*account.User) error { return nil })
	if err != nil {
		t.Fatalf("UpdateUserByName() error = %v", err)
	}
	if found {
		t.Error("UpdateUserByName(nobody) = true, want false")
	}
}

func TestAccountsGroupLifecycle(t *testing.T) {
	a := newTestAccounts(t)
	g := &account.Group{Name: "wheel", GID: 10}

	if err := a.AppendGroup(g); err != nil {
		t.Fatalf("AppendGroup() error = %v", err)
	}

	got, ok, err := a.GetGroupByName("wheel")
	if err != nil || !ok {
		t.Fatalf("GetGroupByName(wheel) ok=%v err=%v", ok, err)
	}
	if got.GID != 10 {
		t.Errorf("GID = %d, want 10", got.GID)
	}

	got, ok, err = a.GetGroupByGID(10)
	if err != nil || !ok {
		t.Fatalf("GetGroupByGID(10) ok=%v err=%v", ok, err)
	}
	if got.Name != "wheel" {
		t.Errorf("Name = %q, want wheel", got.Name)
	}

	found, err := a.UpdateGroupByName("wheel", func(g *account.Group) error {
		g.Members = append(g.Members, "alice")
		return nil
	})
	if err != nil || !found {
		t.Fatalf("UpdateGroupByName() found=%v err=%v", found, err)
	}

	got, _, _ = a.GetGroupByName("wheel")
	if len(got.Members) != 1 || got.Members[0] != "alice" {
		t.Errorf("Members = %v, want [alice]", got.Members)
	}

	if err := a.DeleteGroupByName("wheel"); err != nil {
		t.Fatalf("DeleteGroupByName() error = %v", err)
	}
	_, ok, _ = a.GetGroupByName("wheel")
	if ok {
		t.Error("wheel still present after delete")
	}
}
