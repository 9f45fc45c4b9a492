package validator

import "testing"

func TestName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"alice", true},
		{"_system", true},
		{"alice.bob-99", true},
		{"", false},
		{"9alice", false},
		{"ali ce", false},
		{"ali:ce", false},
		{"ali,ce", false},
		{"a\nb", false},
		{string(make([]byte, 33)), false},
	}
	for _, c := range cases {
		err := Name(c.name)
		if c.valid && err != nil {
			t.Errorf("Name(%q) = %v, want nil", c.name, err)
		}
		if !c.valid && err == nil {
			t.Errorf("Name(%q) = nil, want an error", c.name)
		}
	}
}

func TestIDInRange(t *testing.T) {
	if err := IDInRange(1000, 1000, 60000); err != nil {
		t.Errorf("IDInRange(1000, 1000, 60000) = %v, want nil", err)
	}
	if err := IDInRange(999, 1000, 60000); err == nil {
		t.Error("IDInRange(999, 1000, 60000) = nil, want an error")
	}
	if err := IDInRange(60001, 1000, 60000); err == nil {
		t.Error("IDInRange(60001, 1000, 60000) = nil, want an error")
	}
}

func TestAbsolutePath(t *testing.T) {
	if err := AbsolutePath("/home/alice"); err != nil {
		t.Errorf("AbsolutePath(/home/alice) = %v, want nil", err)
	}
	if err := AbsolutePath("home/alice"); err == nil {
		t.Error("AbsolutePath(relative) = nil, want an error")
	}
	if err := AbsolutePath("/home/../etc"); err == nil {
		t.Error("AbsolutePath(with ..) = nil, want an error")
	}
}

func TestHomeUnderPrefix(t *testing.T) {
	if err := HomeUnderPrefix("/home/alice", "/home"); err != nil {
		t.Errorf("HomeUnderPrefix(/home/alice, /home) = %v, want nil", err)
	}
	if err := HomeUnderPrefix("/home", "/home"); err != nil {
		t.Errorf("HomeUnderPrefix(/home, /home) = %v, want nil", err)
	}
	if err := HomeUnderPrefix("/etc", "/home"); err == nil {
		t.Error("HomeUnderPrefix(/etc, /home) = nil, want an error")
	}
	if err := HomeUnderPrefix("/homefoo", "/home"); err == nil {
		t.Error("HomeUnderPrefix(/homefoo, /home) = nil, want an error (prefix must be a path segment)")
	}
}

type sampleDTO struct {
	Name string `validate:"required"`
}

func TestStruct(t *testing.T) {
	if err := Struct(sampleDTO{Name: "alice"}); err != nil {
		t.Errorf("Struct(valid) = %v, want nil", err)
	}
	if err := Struct(sampleDTO{}); err == nil {
		t.Error("Struct(invalid) = nil, want an error")
	}
}
