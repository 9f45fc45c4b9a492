package logger

import "log/slog"

// Standard field keys for structured logging across the store, engine,
// broker, and façade.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyOperation = "operation" // add, update, delete, add-member, delete-member
	KeyTable     = "table"     // passwd, shadow, group, gshadow

	KeyUsername = "username"
	KeyGroup    = "group"
	KeyUID      = "uid"
	KeyGID      = "gid"
	KeyCallerID = "caller_id" // bus unique-name or connection fd
	KeyObjectPath = "object_path"

	KeyAlgorithm = "algorithm"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"

	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Operation returns a slog.Attr for the engine operation name.
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// Table returns a slog.Attr for the account table name.
func Table(name string) slog.Attr { return slog.String(KeyTable, name) }

// Username returns a slog.Attr for a username.
func Username(name string) slog.Attr { return slog.String(KeyUsername, name) }

// Group returns a slog.Attr for a group name.
func Group(name string) slog.Attr { return slog.String(KeyGroup, name) }

// UID returns a slog.Attr for a user ID.
func UID(uid uint32) slog.Attr { return slog.Any(KeyUID, uid) }

// GID returns a slog.Attr for a group ID.
func GID(gid uint32) slog.Attr { return slog.Any(KeyGID, gid) }

// CallerID returns a slog.Attr for the bus caller identity.
func CallerID(id string) slog.Attr { return slog.String(KeyCallerID, id) }

// ObjectPath returns a slog.Attr for a minted handle object path.
func ObjectPath(path string) slog.Attr { return slog.String(KeyObjectPath, path) }

// Algorithm returns a slog.Attr for a hash algorithm tag.
func Algorithm(id string) slog.Attr { return slog.String(KeyAlgorithm, id) }

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a machine-readable error kind.
func ErrorCode(code string) slog.Attr { return slog.String(KeyErrorCode, code) }

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

// MaxRetries returns a slog.Attr for the maximum retry attempt count.
func MaxRetries(n int) slog.Attr { return slog.Int(KeyMaxRetries, n) }
