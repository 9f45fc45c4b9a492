// Package validator applies the account table's name, path, and ID-range
// preconditions before the engine begins a transaction, per SPEC_FULL.md
// §4.3. It also exposes Struct, which checks go-playground/validator
// struct tags on a DTO; the façade does not call it, so bus requests reach
// the engine without struct-tag validation.
package validator

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/o1-security/gumd/pkg/errs"
)

const maxNameLength = 32

// structValidator is shared across the package; go-playground/validator
// caches struct reflection internally so a single instance is the
// idiomatic way to use it.
var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a DTO's `validate:"..."` tags, translating any failure
// into an errs.InvalidName error.
func Struct(v interface{}) error {
	if err := structValidator.Struct(v); err != nil {
		return errs.InvalidName("request", err.Error())
	}
	return nil
}

// Name enforces the username/groupname rule: nonempty, at most 32 bytes,
// matching `[A-Za-z_][A-Za-z0-9_.-]*`, and free of `:`, `,`, newlines, or
// whitespace.
func Name(name string) error {
	if name == "" {
		return errs.InvalidName(name, "must not be empty")
	}
	if len(name) > maxNameLength {
		return errs.InvalidName(name, "exceeds 32 characters")
	}
	if strings.ContainsAny(name, ":,\n\t ") {
		return errs.InvalidName(name, "contains a reserved character")
	}
	first := name[0]
	if !isAlphaOrUnderscore(first) {
		return errs.InvalidName(name, "must start with a letter or underscore")
	}
	for i := 1; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return errs.InvalidName(name, "contains an invalid character")
		}
	}
	return nil
}

func isAlphaOrUnderscore(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isNameByte(b byte) bool {
	return isAlphaOrUnderscore(b) || (b >= '0' && b <= '9') || b == '.' || b == '-'
}

// IDInRange rejects a uid/gid outside [min, max].
func IDInRange(id, min, max uint32) error {
	if id < min || id > max {
		return errs.InvalidName("", "id out of configured range")
	}
	return nil
}

// AbsolutePath rejects a relative path or one containing a `..` segment.
func AbsolutePath(path string) error {
	if !filepath.IsAbs(path) {
		return errs.InvalidPath(path, "must be absolute")
	}
	for _, seg := range strings.Split(path, string(filepath.Separator)) {
		if seg == ".." {
			return errs.InvalidPath(path, "must not contain .. segments")
		}
	}
	return nil
}

// HomeUnderPrefix rejects a home directory that does not resolve under
// prefix. Both paths are cleaned before comparison; this is a lexical
// check, not a filesystem realpath resolution — callers that need symlink
// safety (e.g. recursive delete) perform that check separately at
// traversal time.
func HomeUnderPrefix(home, prefix string) error {
	if err := AbsolutePath(home); err != nil {
		return err
	}
	clean := filepath.Clean(home)
	cleanPrefix := filepath.Clean(prefix)
	if clean != cleanPrefix && !strings.HasPrefix(clean, cleanPrefix+string(filepath.Separator)) {
		return errs.InvalidPath(home, "must resolve under the configured home prefix")
	}
	return nil
}
