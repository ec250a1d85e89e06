package logfields

import "log/slog"

// Canonical log field names shared by all packages.
const (
	KeyTimerID   = "timer_id"
	KeyStatus    = "status"
	KeyElapsedMS = "elapsed_ms"
	KeyStoreKey  = "store_key"
	KeyPath      = "path"
	KeyCount     = "count"
	KeyError     = "error"
)

// Helpers returning slog.Attr so callers can compose fields.
func TimerID(id int) slog.Attr { return slog.Int(KeyTimerID, id) }
func Status(s string) slog.Attr { return slog.String(KeyStatus, s) }
func ElapsedMS(ms int64) slog.Attr { return slog.Int64(KeyElapsedMS, ms) }
func StoreKey(key string) slog.Attr { return slog.String(KeyStoreKey, key) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
