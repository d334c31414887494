package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCycleID    = "cycle_id"
	KeyTrigger    = "trigger"
	KeyResource   = "resource"
	KeyKind       = "kind"
	KeyPath       = "path"
	KeyDir        = "dir"
	KeyOp         = "op"
	KeyCount      = "count"
	KeyForce      = "force"
	KeyDurationMS = "duration_ms"
	KeyState      = "state"
	KeyError      = "error"
	KeyAddr       = "addr"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Resource(name string) slog.Attr  { return slog.String(KeyResource, name) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Op(op string) slog.Attr          { return slog.String(KeyOp, op) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Force(f bool) slog.Attr          { return slog.Bool(KeyForce, f) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
