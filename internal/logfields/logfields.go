package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyState      = "state"
	KeyTool       = "tool"
	KeyArgs       = "args"
	KeyDir        = "dir"
	KeyPath       = "path"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyRevision   = "revision"
	KeyBranch     = "branch"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }
func Tool(name string) slog.Attr       { return slog.String(KeyTool, name) }
func Args(args []string) slog.Attr     { return slog.Any(KeyArgs, args) }
func Dir(d string) slog.Attr           { return slog.String(KeyDir, d) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Revision(rev string) slog.Attr    { return slog.String(KeyRevision, rev) }
func Branch(name string) slog.Attr     { return slog.String(KeyBranch, name) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
