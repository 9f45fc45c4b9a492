// Package busiface defines the Go-interface boundary between the account
// engine/broker core and the bus transport, per SPEC_FULL.md's framing
// that the transport itself (D-Bus or otherwise) is an external
// collaborator specified only by the interfaces the core uses. No D-Bus
// binding exists anywhere in the dependency corpus this daemon draws
// from, so the wire format is abstracted behind these Go interfaces; a
// real transport adapter implements them against godbus/dbus or an
// equivalent binding without the core ever importing it.
package busiface

import "context"

// CallerID identifies the RPC caller: the bus unique-name on a shared
// bus, or the connection file descriptor number on a per-connection
// socket transport.
type CallerID string

// UserProperties mirrors the fields an Accounts/User handle exposes over
// the bus.
type UserProperties struct {
	UID      uint32
	GID      uint32
	Username string
	Realname string
	Home     string
	Shell    string
}

// GroupProperties mirrors the fields a Groups/Group handle exposes.
type GroupProperties struct {
	GID     uint32
	Name    string
	Members []string
	Admins  []string
}

// AccountsService is the per-transport "Accounts" RPC surface.
type AccountsService interface {
	CreateNewUser(ctx context.Context, caller CallerID) (objectPath string, err error)
	GetUser(ctx context.Context, caller CallerID, uid uint32) (objectPath string, err error)
	GetUserByName(ctx context.Context, caller CallerID, name string) (objectPath string, err error)
}

// UserHandle is the per-handle "User" RPC surface.
type UserHandle interface {
	Properties(ctx context.Context) (UserProperties, error)
	SetProperty(ctx context.Context, name string, value any) error
	AddUser(ctx context.Context) (uid uint32, err error)
	DeleteUser(ctx context.Context, removeHome bool) error
	UpdateUser(ctx context.Context) error
}

// GroupsService is the per-transport "Groups" RPC surface.
type GroupsService interface {
	CreateNewGroup(ctx context.Context, caller CallerID) (objectPath string, err error)
	GetGroup(ctx context.Context, caller CallerID, gid uint32) (objectPath string, err error)
	GetGroupByName(ctx context.Context, caller CallerID, name string) (objectPath string, err error)
}

// GroupHandle is the per-handle "Group" RPC surface.
type GroupHandle interface {
	Properties(ctx context.Context) (GroupProperties, error)
	SetProperty(ctx context.Context, name string, value any) error
	AddGroup(ctx context.Context, preferredGID uint32) (gid uint32, err error)
	DeleteGroup(ctx context.Context) error
	UpdateGroup(ctx context.Context) error
	AddMember(ctx context.Context, uid uint32, asAdmin bool) error
	DeleteMember(ctx context.Context, uid uint32) error
}

// SignalEmitter is how a handle or service notifies the transport of a
// signal to broadcast (userAdded, groupDeleted, unregistered, ...). A
// real transport adapter implements this over its own wire signal type;
// the in-process test transport just records calls.
type SignalEmitter interface {
	EmitSignal(objectPath, name string, args ...any)
}
