package cmdutil

import (
	"bytes"
	"testing"

	"github.com/o1-security/gumd/internal/cli/output"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single item", input: "foo", expected: []string{"foo"}},
		{name: "multiple items", input: "foo,bar,baz", expected: []string{"foo", "bar", "baz"}},
		{name: "items with spaces", input: "foo, bar , baz", expected: []string{"foo", "bar", "baz"}},
		{name: "empty items filtered out", input: "foo,,bar,", expected: []string{"foo", "bar"}},
		{name: "only whitespace filtered out", input: "foo, , bar", expected: []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCommaSeparatedList(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("ParseCommaSeparatedList(%q) = %v, want %v", tt.input, result, tt.expected)
				return
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("ParseCommaSeparatedList(%q)[%d] = %q, want %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestEmptyOr(t *testing.T) {
	tests := []struct {
		value    string
		fallback string
		expected string
	}{
		{"set", "-", "set"},
		{"", "-", "-"},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := EmptyOr(tt.value, tt.fallback); got != tt.expected {
			t.Errorf("EmptyOr(%q, %q) = %q, want %q", tt.value, tt.fallback, got, tt.expected)
		}
	}
}

func TestGetOutputFormatParsed(t *testing.T) {
	tests := []struct {
		flagValue string
		expected  output.Format
		wantErr   bool
	}{
		{"table", output.FormatTable, false},
		{"json", output.FormatJSON, false},
		{"yaml", output.FormatYAML, false},
		{"invalid", output.FormatTable, true},
	}

	for _, tt := range tests {
		t.Run(tt.flagValue, func(t *testing.T) {
			Flags.Output = tt.flagValue
			result, err := GetOutputFormatParsed()
			if (err != nil) != tt.wantErr {
				t.Errorf("GetOutputFormatParsed() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("GetOutputFormatParsed() = %v, want %v", result, tt.expected)
			}
		})
	}
}

type testTableRenderer struct {
	headers []string
	rows    [][]string
}

func (r testTableRenderer) Headers() []string { return r.headers }
func (r testTableRenderer) Rows() [][]string  { return r.rows }

func TestPrintResourceJSON(t *testing.T) {
	Flags.Output = "json"
	var buf bytes.Buffer
	data := []string{"alice", "bob"}
	renderer := testTableRenderer{headers: []string{"NAME"}, rows: [][]string{{"alice"}, {"bob"}}}

	if err := PrintResource(&buf, data, renderer); err != nil {
		t.Fatalf("PrintResource() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("alice")) || !bytes.Contains(buf.Bytes(), []byte("bob")) {
		t.Errorf("PrintResource() JSON output = %q, missing expected data", buf.String())
	}
}

func TestPrintResourceYAML(t *testing.T) {
	Flags.Output = "yaml"
	var buf bytes.Buffer
	data := []string{"alice", "bob"}
	renderer := testTableRenderer{headers: []string{"NAME"}, rows: [][]string{{"alice"}, {"bob"}}}

	if err := PrintResource(&buf, data, renderer); err != nil {
		t.Fatalf("PrintResource() error = %v", err)
	}
	want := "- alice\n- bob\n"
	if buf.String() != want {
		t.Errorf("PrintResource() YAML output = %q, want %q", buf.String(), want)
	}
}

func TestPrintResourceTable(t *testing.T) {
	Flags.Output = "table"
	var buf bytes.Buffer
	renderer := testTableRenderer{headers: []string{"NAME"}, rows: [][]string{{"alice"}, {"bob"}}}

	if err := PrintResource(&buf, nil, renderer); err != nil {
		t.Fatalf("PrintResource() error = %v", err)
	}
	if len(buf.String()) == 0 {
		t.Error("PrintResource() table output is empty")
	}
}

func TestPrintResourceInvalidFormat(t *testing.T) {
	Flags.Output = "bogus"
	var buf bytes.Buffer
	if err := PrintResource(&buf, nil, testTableRenderer{}); err == nil {
		t.Error("PrintResource() with an invalid output format returned nil error")
	}
}
