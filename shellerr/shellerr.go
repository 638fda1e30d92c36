// Package shellerr defines the typed error kinds krusty uses to carry an
// exit code alongside a human-readable message from wherever a command
// fails up to the chain executor and REPL.
package shellerr

import (
	"errors"
	"fmt"
)

// Kind identifies which class of failure produced an Error, independent of
// its message text, so callers can switch on it (e.g. the chain executor
// deciding whether `set -e` should abort the script).
type Kind int

const (
	// KindParse covers tokenizer and parser failures.
	KindParse Kind = iota
	// KindExpansionUnbound is raised by the expansion engine when `nounset`
	// is active and a referenced variable has no value.
	KindExpansionUnbound
	// KindExpansionBlocked is raised when the sandbox policy forbids a
	// command substitution or process substitution.
	KindExpansionBlocked
	// KindNotFound covers external commands that could not be resolved on
	// $PATH.
	KindNotFound
	// KindTimeout is raised by the external executor's watchdog.
	KindTimeout
	// KindSignalTermination wraps a job killed by a signal.
	KindSignalTermination
	// KindBuiltin covers builtin-defined failures with a builtin-chosen
	// exit code.
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindExpansionUnbound:
		return "ExpansionError::Unbound"
	case KindExpansionBlocked:
		return "ExpansionError::Blocked"
	case KindNotFound:
		return "NotFound"
	case KindTimeout:
		return "Timeout"
	case KindSignalTermination:
		return "SignalTermination"
	case KindBuiltin:
		return "BuiltinError"
	default:
		return "UnknownError"
	}
}

// Error is krusty's structured error type. ExitCode is what the chain and
// script executors surface as `$?`; Message is what gets written to
// stderr, already formatted with any `krusty: ` prefix the kind requires.
type Error struct {
	Kind     Kind
	Message  string
	ExitCode int
	// Cause is the underlying error, if any (e.g. an os/exec failure).
	Cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewParseError builds a syntax error at the given byte offset, rendering
// the caret line the spec requires.
func NewParseError(input string, offset int, msg string) *Error {
	return &Error{
		Kind:     KindParse,
		ExitCode: 2,
		Message:  fmt.Sprintf("krusty: syntax error: %s\n%s\n%s^", msg, input, caret(offset)),
	}
}

func caret(offset int) string {
	if offset < 0 {
		offset = 0
	}
	b := make([]byte, offset)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// NewUnbound builds an ExpansionError::Unbound for the given variable name.
func NewUnbound(name string) *Error {
	return &Error{
		Kind:     KindExpansionUnbound,
		ExitCode: 1,
		Message:  fmt.Sprintf("krusty: %s: unbound variable", name),
	}
}

// NewBlocked builds an ExpansionError::Blocked for a sandboxed
// substitution.
func NewBlocked() *Error {
	return &Error{
		Kind:     KindExpansionBlocked,
		ExitCode: 1,
		Message:  "krusty: command substitution blocked by sandbox",
	}
}

// NewNotFound builds a NotFound error for an unresolved command name.
func NewNotFound(name string) *Error {
	return &Error{
		Kind:     KindNotFound,
		ExitCode: 127,
		Message:  fmt.Sprintf("krusty: %s: command not found", name),
	}
}

// NewTimeout builds a Timeout error for a watchdog-killed process.
func NewTimeout(ms int64) *Error {
	return &Error{
		Kind:     KindTimeout,
		ExitCode: 124,
		Message:  fmt.Sprintf("krusty: process timed out after %dms", ms),
	}
}

// NewSignalTermination builds a SignalTermination error for a job killed by
// signal number sig. Per POSIX convention the exit code is 128+sig.
func NewSignalTermination(sig int) *Error {
	return &Error{
		Kind:     KindSignalTermination,
		ExitCode: 128 + sig,
		Message:  fmt.Sprintf("krusty: terminated by signal %d", sig),
	}
}

// NewBuiltinError builds a BuiltinError carrying the builtin's own exit
// code and message.
func NewBuiltinError(exitCode int, msg string) *Error {
	return &Error{
		Kind:     KindBuiltin,
		ExitCode: exitCode,
		Message:  msg,
	}
}

// ExitCode extracts the exit code krusty should surface for err. Non-nil
// errors that aren't *Error map to exit 1, matching the generic failure
// code a builtin returns for an unclassified problem. A nil error maps to
// 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return se.ExitCode
	}
	return 1
}
