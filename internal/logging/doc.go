// Package logging assembles the slog loggers used by the moviescene CLI and
// core packages.
//
// It owns the console and JSON handlers, level parsing and output plumbing,
// and the standard attribute keys (component, sequence, track, command).
// Core packages accept a *slog.Logger and fall back to NewNop when handed
// nil, so wiring code and tests never need a real sink.
package logging
