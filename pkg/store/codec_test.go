package store

import (
	"reflect"
	"testing"

	"github.com/o1-security/gumd/pkg/account"
)

func TestUserRecordRoundTrip(t *testing.T) {
	day := int64(19000)
	u := &account.User{
		Username:      "alice",
		UID:           1000,
		GID:           1000,
		Gecos:         account.ParseGecos("Alice Example"),
		Home:          "/home/alice",
		Shell:         "/bin/bash",
		HashedSecret:  "$6$salt$hash",
		LastChangeDay: &day,
	}

	passwd := PasswdRecord(u, Record{})
	shadow := ShadowRecord(u, Record{})

	got, err := UserFromRecords(passwd, shadow)
	if err != nil {
		t.Fatalf("UserFromRecords() error = %v", err)
	}

	if got.Username != u.Username || got.UID != u.UID || got.GID != u.GID ||
		got.Home != u.Home || got.Shell != u.Shell || got.HashedSecret != u.HashedSecret {
		t.Errorf("round-tripped user = %+v, want %+v", got, u)
	}
	if got.LastChangeDay == nil || *got.LastChangeDay != day {
		t.Errorf("LastChangeDay = %v, want %d", got.LastChangeDay, day)
	}
	if got.MinDays != nil {
		t.Errorf("MinDays = %v, want nil", got.MinDays)
	}
}

func TestPasswdRecordPreservesExtraFields(t *testing.T) {
	base := Record{Fields: []string{"alice", "x", "1000", "1000", "Alice", "/home/alice", "/bin/bash", "futurefield"}}
	u, err := UserFromRecords(base, Record{})
	if err != nil {
		t.Fatalf("UserFromRecords() error = %v", err)
	}

	rendered := PasswdRecord(u, base)
	if !reflect.DeepEqual(rendered.Fields, base.Fields) {
		t.Errorf("PasswdRecord() = %v, want unchanged %v (extra field preserved)", rendered.Fields, base.Fields)
	}
}

func TestGroupRecordRoundTrip(t *testing.T) {
	g := &account.Group{
		Name:           "wheel",
		GID:            10,
		HashedSecret:   "!",
		Members:        []string{"alice", "bob"},
		Administrators: []string{"alice"},
	}

	group := GroupRecord(g, Record{})
	gshadow := GshadowRecord(g, Record{})

	got, err := GroupFromRecords(group, gshadow)
	if err != nil {
		t.Fatalf("GroupFromRecords() error = %v", err)
	}

	if got.Name != g.Name || got.GID != g.GID || got.HashedSecret != g.HashedSecret {
		t.Errorf("round-tripped group = %+v, want %+v", got, g)
	}
	if !reflect.DeepEqual(got.Members, g.Members) {
		t.Errorf("Members = %v, want %v", got.Members, g.Members)
	}
	if !reflect.DeepEqual(got.Administrators, g.Administrators) {
		t.Errorf("Administrators = %v, want %v", got.Administrators, g.Administrators)
	}
}

func TestGroupFromRecordsGshadowMembersAuthoritative(t *testing.T) {
	group := Record{Fields: []string{"wheel", "x", "10", "alice"}}
	gshadow := Record{Fields: []string{"wheel", "!", "", "alice,bob"}}

	got, err := GroupFromRecords(group, gshadow)
	if err != nil {
		t.Fatalf("GroupFromRecords() error = %v", err)
	}
	want := []string{"alice", "bob"}
	if !reflect.DeepEqual(got.Members, want) {
		t.Errorf("Members = %v, want %v (gshadow authoritative)", got.Members, want)
	}
}

func TestUserFromRecordsInvalidUID(t *testing.T) {
	passwd := Record{Fields: []string{"alice", "x", "notanumber", "1000", "", "/home/alice", "/bin/bash"}}
	if _, err := UserFromRecords(passwd, Record{}); err == nil {
		t.Error("UserFromRecords() with a non-numeric uid returned nil error")
	}
}
