package store

import (
	"strconv"
	"strings"

	"github.com/o1-security/gumd/pkg/account"
	"github.com/o1-security/gumd/pkg/errs"
)

// UserFromRecords joins a passwd Record and its matching shadow Record into
// an account.User. The two records must already be known to share the same
// username (field index 0); callers look both up by that username, each
// under its own table's lock.
func UserFromRecords(passwd, shadow Record) (*account.User, error) {
	uid, err := parseUint32(passwd.Field(passwdUID))
	if err != nil {
		return nil, err
	}
	gid, err := parseUint32(passwd.Field(passwdGID))
	if err != nil {
		return nil, err
	}

	u := &account.User{
		Username: passwd.Field(passwdName),
		UID:      uid,
		GID:      gid,
		Gecos:    account.ParseGecos(passwd.Field(passwdGecos)),
		Home:     passwd.Field(passwdHome),
		Shell:    passwd.Field(passwdShell),
	}

	if shadow.Fields != nil {
		u.HashedSecret = shadow.Field(shadowHash)
		u.LastChangeDay, err = parseOptionalInt64(shadow.Field(shadowLastCh))
		if err != nil {
			return nil, err
		}
		u.MinDays, err = parseOptionalInt64(shadow.Field(shadowMin))
		if err != nil {
			return nil, err
		}
		u.MaxDays, err = parseOptionalInt64(shadow.Field(shadowMax))
		if err != nil {
			return nil, err
		}
		u.WarnDays, err = parseOptionalInt64(shadow.Field(shadowWarn))
		if err != nil {
			return nil, err
		}
		u.InactiveDays, err = parseOptionalInt64(shadow.Field(shadowInact))
		if err != nil {
			return nil, err
		}
		u.ExpireDay, err = parseOptionalInt64(shadow.Field(shadowExpire))
		if err != nil {
			return nil, err
		}
		u.ReservedFlag = shadow.Field(shadowFlag)
	}

	return u, nil
}

// PasswdRecord renders u's passwd-table fields, preserving any extra
// trailing fields already present on base (pass a zero Record for a brand
// new row).
func PasswdRecord(u *account.User, base Record) Record {
	fields := []string{
		u.Username,
		"x",
		strconv.FormatUint(uint64(u.UID), 10),
		strconv.FormatUint(uint64(u.GID), 10),
		u.Gecos.String(),
		u.Home,
		u.Shell,
	}
	return withExtra(fields, base, PasswdWidth)
}

// ShadowRecord renders u's shadow-table fields.
func ShadowRecord(u *account.User, base Record) Record {
	fields := []string{
		u.Username,
		u.HashedSecret,
		formatOptionalInt64(u.LastChangeDay),
		formatOptionalInt64(u.MinDays),
		formatOptionalInt64(u.MaxDays),
		formatOptionalInt64(u.WarnDays),
		formatOptionalInt64(u.InactiveDays),
		formatOptionalInt64(u.ExpireDay),
		u.ReservedFlag,
	}
	return withExtra(fields, base, ShadowWidth)
}

// GroupFromRecords joins a group Record and its matching gshadow Record
// into an account.Group.
func GroupFromRecords(group, gshadow Record) (*account.Group, error) {
	gid, err := parseUint32(group.Field(groupGID))
	if err != nil {
		return nil, err
	}
	g := &account.Group{
		Name:    group.Field(groupName),
		GID:     gid,
		Members: splitCSV(group.Field(groupMembers)),
	}
	if gshadow.Fields != nil {
		g.HashedSecret = gshadow.Field(gshadowHash)
		g.Administrators = splitCSV(gshadow.Field(gshadowAdmins))
		// The gshadow member list is authoritative; the group table's
		// member list is kept in sync by the engine on every mutation.
		if members := splitCSV(gshadow.Field(gshadowMembers)); members != nil {
			g.Members = members
		}
	}
	return g, nil
}

// GroupRecord renders g's group-table fields.
func GroupRecord(g *account.Group, base Record) Record {
	fields := []string{
		g.Name,
		"x",
		strconv.FormatUint(uint64(g.GID), 10),
		strings.Join(g.Members, ","),
	}
	return withExtra(fields, base, GroupWidth)
}

// GshadowRecord renders g's gshadow-table fields.
func GshadowRecord(g *account.Group, base Record) Record {
	fields := []string{
		g.Name,
		g.HashedSecret,
		strings.Join(g.Administrators, ","),
		strings.Join(g.Members, ","),
	}
	return withExtra(fields, base, GshadowWidth)
}

// withExtra appends base's unknown trailing fields (if any) to a freshly
// rendered schema-width field list, so a round-tripped update never drops
// forward-compat columns a future daemon version might have written.
func withExtra(fields []string, base Record, width int) Record {
	fields = append(fields, base.Extra(width)...)
	return Record{Fields: fields}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errs.FileCorrupt("", 0, err)
	}
	return uint32(v), nil
}

func parseOptionalInt64(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errs.FileCorrupt("", 0, err)
	}
	return &v, nil
}

func formatOptionalInt64(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
