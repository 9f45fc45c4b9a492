package store

import "github.com/o1-security/gumd/pkg/metrics"

// Field indices and schema widths for the four account tables, per
// spec.md §6.
const (
	PasswdWidth = 7
	passwdName  = 0
	passwdX     = 1
	passwdUID   = 2
	passwdGID   = 3
	passwdGecos = 4
	passwdHome  = 5
	passwdShell = 6

	ShadowWidth   = 9
	shadowName    = 0
	shadowHash    = 1
	shadowLastCh  = 2
	shadowMin     = 3
	shadowMax     = 4
	shadowWarn    = 5
	shadowInact   = 6
	shadowExpire  = 7
	shadowFlag    = 8

	GroupWidth   = 4
	groupName    = 0
	groupX       = 1
	groupGID     = 2
	groupMembers = 3

	GshadowWidth   = 4
	gshadowName    = 0
	gshadowHash    = 1
	gshadowAdmins  = 2
	gshadowMembers = 3
)

// Paths configures where the four account tables live on disk.
type Paths struct {
	Passwd  string
	Shadow  string
	Group   string
	Gshadow string
}

// Accounts bundles the four account tables behind the composed
// get/update/delete-by-name helpers spec.md §4.1 describes. It holds no
// lock itself — each Table manages its own lock file, and a single
// engine sub-step never needs more than one table locked at a time (see
// DESIGN.md's note on why no joint multi-table transaction type exists).
type Accounts struct {
	Passwd  *Table
	Shadow  *Table
	Group   *Table
	Gshadow *Table
}

// NewAccounts opens the four tables at the given paths.
func NewAccounts(paths Paths, m *metrics.StoreMetrics) *Accounts {
	return &Accounts{
		Passwd:  NewTable("passwd", paths.Passwd, PasswdWidth, m),
		Shadow:  NewTable("shadow", paths.Shadow, ShadowWidth, m),
		Group:   NewTable("group", paths.Group, GroupWidth, m),
		Gshadow: NewTable("gshadow", paths.Gshadow, GshadowWidth, m),
	}
}
