// Package invariant carries the development-time assertion policy.
//
// Structural violations (overlapping ranges where none may exist, hierarchy
// nodes without a parent) are never returned as errors. With Strict set they
// panic so tests catch them immediately; otherwise they are logged and
// counted, and the caller degrades to a best-effort result.
package invariant

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Strict turns violations into panics. Tests enable it from TestMain.
var Strict bool

var (
	logger     atomic.Pointer[slog.Logger]
	violations atomic.Int64
	observer   atomic.Pointer[func(string)]
)

// SetLogger routes violation reports to l. A nil logger restores slog.Default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// SetObserver registers fn to be called with the message of every violation.
func SetObserver(fn func(string)) {
	if fn == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&fn)
}

// Violations returns the number of violations reported since start-up.
func Violations() int64 {
	return violations.Load()
}

// Check reports a violation when ok is false and returns ok, so callers can
// write `if !invariant.Check(...) { return }`.
func Check(ok bool, msg string, args ...any) bool {
	if ok {
		return true
	}
	violations.Add(1)
	if Strict {
		panic(fmt.Sprintf("invariant violated: %s %v", msg, args))
	}
	if fn := observer.Load(); fn != nil {
		(*fn)(msg)
	}
	l := logger.Load()
	if l == nil {
		l = slog.Default()
	}
	l.Warn("invariant violated", append([]any{slog.String("invariant", msg)}, args...)...)
	return false
}
