// Package hooks implements the graceful-exit runtime: every host-facing
// hook entry point is wrapped so that neither a panic nor a returned error
// ever reaches the host process, grounded on graceful.py.
package hooks

import (
	"log/slog"
	"os"
)

// Exit codes. 2 is reserved and never used by GracefulHook — only a host
// that wants to explicitly block an action would exit 2 itself.
const (
	ExitSuccess     = 0
	ExitNonBlocking = 1
	ExitBlocking    = 2
)

// Func is a hook entry point: it may return an error, or panic; both are
// caught by GracefulHook.
type Func func() error

// GracefulHook wraps fn so that a panic or a returned error is logged as a
// single structured "hook_failed" record and converted into os.Exit(1) —
// the host never sees either. Call the returned function as your hook's
// entire body.
func GracefulHook(name string, fn Func) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("hook_failed", "hook", name, "error", r, "error_type", "panic")
				os.Exit(ExitNonBlocking)
			}
		}()

		if err := fn(); err != nil {
			slog.Error("hook_failed", "hook", name, "error", err.Error(), "error_type", "error")
			os.Exit(ExitNonBlocking)
		}
	}
}

// ExitSuccessNow exits 0 immediately.
func ExitSuccessNow() {
	os.Exit(ExitSuccess)
}

// ExitGraceful logs an optional reason (key "reason", not "message" — slog
// reserves "msg" for the log line itself) then exits 1, the same
// non-blocking code GracefulHook uses for a caught failure.
func ExitGraceful(reason string) {
	if reason != "" {
		slog.Warn("graceful_exit", "reason", reason)
	}
	os.Exit(ExitNonBlocking)
}
