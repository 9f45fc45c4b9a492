package store

import (
	"strconv"

	"github.com/o1-security/gumd/pkg/account"
)

// GetUserByName loads the passwd row for name and joins it with the
// matching shadow row, if any. ok is false if no passwd row matches.
func (a *Accounts) GetUserByName(name string) (u *account.User, ok bool, err error) {
	prec, found, err := a.Passwd.GetByField(passwdName, name)
	if err != nil || !found {
		return nil, false, err
	}
	srec, _, err := a.Shadow.GetByField(shadowName, name)
	if err != nil {
		return nil, false, err
	}
	u, err = UserFromRecords(prec, srec)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// GetUserByUID loads the passwd row whose UID matches uid.
func (a *Accounts) GetUserByUID(uid uint32) (u *account.User, ok bool, err error) {
	prec, found, err := a.Passwd.GetByField(passwdUID, strconv.FormatUint(uint64(uid), 10))
	if err != nil || !found {
		return nil, false, err
	}
	srec, _, err := a.Shadow.GetByField(shadowName, prec.Field(passwdName))
	if err != nil {
		return nil, false, err
	}
	u, err = UserFromRecords(prec, srec)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// AppendUser appends both the passwd and shadow rows for a newly created
// user. The two tables are locked and rewritten independently; the engine
// is responsible for unwinding the passwd row if the shadow append fails
// (see pkg/engine's compensation stack).
func (a *Accounts) AppendUser(u *account.User) error {
	if err := a.Passwd.Append(PasswdRecord(u, Record{}).Fields); err != nil {
		return err
	}
	return a.Shadow.Append(ShadowRecord(u, Record{}).Fields)
}

// UpdateUserByName applies mutate to the named user's in-memory
// representation and rewrites both passwd and shadow rows from the result.
// mutate must not change u.Username.
func (a *Accounts) UpdateUserByName(name string, mutate func(*account.User) error) (bool, error) {
	foundPasswd, err := a.Passwd.UpdateByField(passwdName, name, func(prec Record) (Record, error) {
		srec, _, serr := a.Shadow.GetByField(shadowName, name)
		if serr != nil {
			return Record{}, serr
		}
		u, uerr := UserFromRecords(prec, srec)
		if uerr != nil {
			return Record{}, uerr
		}
		if merr := mutate(u); merr != nil {
			return Record{}, merr
		}
		return PasswdRecord(u, prec), nil
	})
	if err != nil || !foundPasswd {
		return foundPasswd, err
	}
	prec, _, err := a.Passwd.GetByField(passwdName, name)
	if err != nil {
		return true, err
	}
	_, err = a.Shadow.UpdateByField(shadowName, name, func(srec Record) (Record, error) {
		joined, jerr := UserFromRecords(prec, srec)
		if jerr != nil {
			return Record{}, jerr
		}
		if merr := mutate(joined); merr != nil {
			return Record{}, merr
		}
		return ShadowRecord(joined, srec), nil
	})
	return true, err
}

// DeleteUserByName removes both the passwd and shadow rows for name.
func (a *Accounts) DeleteUserByName(name string) error {
	if _, err := a.Passwd.DeleteByField(passwdName, name); err != nil {
		return err
	}
	_, err := a.Shadow.DeleteByField(shadowName, name)
	return err
}

// GetGroupByName loads the group row for name and joins it with the
// matching gshadow row, if any.
func (a *Accounts) GetGroupByName(name string) (g *account.Group, ok bool, err error) {
	grec, found, err := a.Group.GetByField(groupName, name)
	if err != nil || !found {
		return nil, false, err
	}
	gsrec, _, err := a.Gshadow.GetByField(gshadowName, name)
	if err != nil {
		return nil, false, err
	}
	g, err = GroupFromRecords(grec, gsrec)
	if err != nil {
		return nil, false, err
	}
	return g, true, nil
}

// GetGroupByGID loads the group row whose GID matches gid.
func (a *Accounts) GetGroupByGID(gid uint32) (g *account.Group, ok bool, err error) {
	grec, found, err := a.Group.GetByField(groupGID, strconv.FormatUint(uint64(gid), 10))
	if err != nil || !found {
		return nil, false, err
	}
	gsrec, _, err := a.Gshadow.GetByField(gshadowName, grec.Field(groupName))
	if err != nil {
		return nil, false, err
	}
	g, err = GroupFromRecords(grec, gsrec)
	if err != nil {
		return nil, false, err
	}
	return g, true, nil
}

// AppendGroup appends both the group and gshadow rows for a newly created
// group.
func (a *Accounts) AppendGroup(g *account.Group) error {
	if err := a.Group.Append(GroupRecord(g, Record{}).Fields); err != nil {
		return err
	}
	return a.Gshadow.Append(GshadowRecord(g, Record{}).Fields)
}

// UpdateGroupByName applies mutate to the named group's in-memory
// representation and rewrites both group and gshadow rows from the result.
// mutate must not change g.Name.
func (a *Accounts) UpdateGroupByName(name string, mutate func(*account.Group) error) (bool, error) {
	foundGroup, err := a.Group.UpdateByField(groupName, name, func(grec Record) (Record, error) {
		gsrec, gserr := a.getGshadowOrEmpty(name)
		if gserr != nil {
			return Record{}, gserr
		}
		g, gerr := GroupFromRecords(grec, gsrec)
		if gerr != nil {
			return Record{}, gerr
		}
		if merr := mutate(g); merr != nil {
			return Record{}, merr
		}
		return GroupRecord(g, grec), nil
	})
	if err != nil || !foundGroup {
		return foundGroup, err
	}
	grec, _, err := a.Group.GetByField(groupName, name)
	if err != nil {
		return true, err
	}
	gsFound := false
	_, err = a.Gshadow.UpdateByField(gshadowName, name, func(gsrec Record) (Record, error) {
		gsFound = true
		g, gerr := GroupFromRecords(grec, gsrec)
		if gerr != nil {
			return Record{}, gerr
		}
		if merr := mutate(g); merr != nil {
			return Record{}, merr
		}
		return GshadowRecord(g, gsrec), nil
	})
	if err != nil {
		return true, err
	}
	if !gsFound {
		g, gerr := GroupFromRecords(grec, Record{})
		if gerr != nil {
			return true, gerr
		}
		if merr := mutate(g); merr != nil {
			return true, merr
		}
		return true, a.Gshadow.Append(GshadowRecord(g, Record{}).Fields)
	}
	return true, nil
}

// DeleteGroupByName removes both the group and gshadow rows for name.
func (a *Accounts) DeleteGroupByName(name string) error {
	if _, err := a.Group.DeleteByField(groupName, name); err != nil {
		return err
	}
	_, err := a.Gshadow.DeleteByField(gshadowName, name)
	return err
}

func (a *Accounts) getGshadowOrEmpty(name string) (Record, error) {
	rec, found, err := a.Gshadow.GetByField(gshadowName, name)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, nil
	}
	return rec, nil
}
