// Package bscanerr holds the typed error categories used across bscan, as
// described by errors.py in the original project: configuration errors,
// per-target skips, internal invariant violations, and subprocess
// orchestration failures each get their own type so callers can branch on
// category with errors.As instead of string matching.
package bscanerr

import "fmt"

// ConfigError reports a bad flag, a missing file, an unknown scan method, or
// a requested-but-unimplemented feature. The process exits 1 after a single
// ConfigError is reported.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// SkipTargetError reports a per-target precondition failure, such as an
// existing base directory without --hard. The target is dropped; siblings
// proceed.
type SkipTargetError struct {
	Target string
	Msg    string
}

func (e *SkipTargetError) Error() string { return e.Target + ": " + e.Msg }

// NewSkipTargetError builds a SkipTargetError for the given target.
func NewSkipTargetError(target, format string, args ...any) *SkipTargetError {
	return &SkipTargetError{Target: target, Msg: fmt.Sprintf(format, args...)}
}

// InternalError reports a violated invariant: admitting an already-active
// target, reading an unset configuration key, and the like. The process
// exits 1.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.Msg }

// NewInternalError builds an InternalError from a format string.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

// SubprocessError reports a failure to spawn a child process (not a
// non-zero exit code, which is logged as a warning and otherwise ignored).
type SubprocessError struct {
	Cmd string
	Err error
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("cannot spawn subprocess %q: %v", e.Cmd, e.Err)
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// NewSubprocessError wraps a spawn failure for the given command.
func NewSubprocessError(cmd string, err error) *SubprocessError {
	return &SubprocessError{Cmd: cmd, Err: err}
}
