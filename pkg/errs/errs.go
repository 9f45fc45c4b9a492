// Package errs defines the machine-checkable error kinds the account engine,
// file store and broker surface to callers. Every kind is a sentinel that
// errors.Is matches against; Error additionally carries a human-readable
// detail string so the façade can build a useful bus error without losing
// the underlying code.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error code, stable across releases so that
// bus clients can switch on it without parsing message text.
type Kind string

const (
	KindUserAlreadyExists  Kind = "UserAlreadyExists"
	KindUserNotFound       Kind = "UserNotFound"
	KindInvalidUserType    Kind = "InvalidUserType"
	KindGroupAlreadyExists Kind = "GroupAlreadyExists"
	KindGroupNotFound      Kind = "GroupNotFound"
	KindInvalidGroupType   Kind = "InvalidGroupType"
	KindAlreadyMember      Kind = "AlreadyMember"
	KindNotAMember         Kind = "NotAMember"
	KindGroupInUse         Kind = "GroupInUse"
	KindInvalidName        Kind = "InvalidName"
	KindInvalidPath        Kind = "InvalidPath"
	KindNoChanges          Kind = "NoChanges"
	KindIDSpaceExhausted   Kind = "IdSpaceExhausted"
	KindFileCorrupt        Kind = "FileCorrupt"
	KindFileIO             Kind = "FileIO"
	KindFileLockBusy       Kind = "FileLockBusy"
	KindPermissionDenied   Kind = "PermissionDenied"
	KindHomeCopyFailed     Kind = "HomeCopyFailed"
)

// Error is the concrete error type returned across component boundaries.
type Error struct {
	Code   Kind
	Detail string
	// Wrapped is the underlying cause, if any (e.g. an os.PathError).
	Wrapped error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is lets errors.Is(err, errs.KindX) work by comparing on Code, since Kind
// is not itself an error. Callers match with errs.Is(err, errs.KindUserNotFound).
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == kind
	}
	return false
}

func newErr(kind Kind, detail string, cause error) *Error {
	return &Error{Code: kind, Detail: detail, Wrapped: cause}
}

func UserAlreadyExists(name string) error {
	return newErr(KindUserAlreadyExists, fmt.Sprintf("user %q already exists", name), nil)
}

func UserNotFound(name string) error {
	return newErr(KindUserNotFound, fmt.Sprintf("user %q not found", name), nil)
}

func InvalidUserType(t string) error {
	return newErr(KindInvalidUserType, fmt.Sprintf("invalid user type %q", t), nil)
}

func GroupAlreadyExists(name string) error {
	return newErr(KindGroupAlreadyExists, fmt.Sprintf("group %q already exists", name), nil)
}

func GroupNotFound(name string) error {
	return newErr(KindGroupNotFound, fmt.Sprintf("group %q not found", name), nil)
}

func InvalidGroupType(t string) error {
	return newErr(KindInvalidGroupType, fmt.Sprintf("invalid group type %q", t), nil)
}

func AlreadyMember(user, group string) error {
	return newErr(KindAlreadyMember, fmt.Sprintf("%q is already a member of %q", user, group), nil)
}

func NotAMember(user, group string) error {
	return newErr(KindNotAMember, fmt.Sprintf("%q is not a member of %q", user, group), nil)
}

func GroupInUse(name string) error {
	return newErr(KindGroupInUse, fmt.Sprintf("group %q is the primary group of at least one user", name), nil)
}

func InvalidName(name, reason string) error {
	return newErr(KindInvalidName, fmt.Sprintf("invalid name %q: %s", name, reason), nil)
}

func InvalidPath(path, reason string) error {
	return newErr(KindInvalidPath, fmt.Sprintf("invalid path %q: %s", path, reason), nil)
}

func NoChanges() error {
	return newErr(KindNoChanges, "no fields changed", nil)
}

func IDSpaceExhausted(min, max uint32) error {
	return newErr(KindIDSpaceExhausted, fmt.Sprintf("no free id in [%d,%d]", min, max), nil)
}

func FileCorrupt(path string, line int, cause error) error {
	return newErr(KindFileCorrupt, fmt.Sprintf("%s:%d: malformed record", path, line), cause)
}

func FileIO(op, path string, cause error) error {
	return newErr(KindFileIO, fmt.Sprintf("%s %s", op, path), cause)
}

func FileLockBusy(path string) error {
	return newErr(KindFileLockBusy, fmt.Sprintf("lock %q held by another process", path), nil)
}

func PermissionDenied(detail string) error {
	return newErr(KindPermissionDenied, detail, nil)
}

func HomeCopyFailed(path string, cause error) error {
	return newErr(KindHomeCopyFailed, fmt.Sprintf("failed to provision home %q", path), cause)
}
