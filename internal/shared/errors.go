package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Sync errors
	ErrSyncBusy       = fmt.Errorf("sync already running for this user")
	ErrRecordNotFound = fmt.Errorf("record not found")
	ErrVersionMoved   = fmt.Errorf("record version changed since batch was built")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// Kind classifies a failure for the retry and surfacing policy. The kind is
// attached at the point of failure and carried end-to-end; message sniffing
// (see [Classify]) exists only as a fallback for errors that arrive from
// outside the application untyped.
type Kind string

const (
	KindNetwork        Kind = "network"
	KindAuthentication Kind = "authentication"
	KindSync           Kind = "sync"
	KindLocalStorage   Kind = "local_storage"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindUnknown        Kind = "unknown"
)

// AppError wraps an underlying error with its classification and the
// operation that produced it.
type AppError struct {
	Kind Kind   // failure classification driving retry/surfacing policy
	Op   string // short operation name, e.g. "push sermons"
	Err  error  // underlying cause
}

// E constructs an [AppError]. Use at the point of failure so the kind
// travels with the error instead of being guessed later.
func E(kind Kind, op string, err error) *AppError {
	return &AppError{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err. A wrapped [AppError] supplies
// its explicit kind; anything else falls through to [Classify].
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Classify(err)
}

// Classify infers a kind from an error's message. This is a best-effort
// boundary adapter for untyped errors from drivers and the standard library;
// code inside this module should attach kinds explicitly with [E].
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "token"),
		strings.Contains(msg, "authentication"):
		return KindAuthentication
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network"):
		return KindNetwork
	case strings.Contains(msg, "database"),
		strings.Contains(msg, "sqlite"),
		strings.Contains(msg, "disk"):
		return KindLocalStorage
	case strings.Contains(msg, "validation"),
		strings.Contains(msg, "invalid"):
		return KindValidation
	case strings.Contains(msg, "conflict"):
		return KindConflict
	case strings.Contains(msg, "sync"):
		return KindSync
	default:
		return KindUnknown
	}
}

// Retryable reports whether failures of this kind are candidates for the
// backoff queue. Only sync failures retry on a timer; network and storage
// failures are the offline steady state and wait for the next full pass.
func (k Kind) Retryable() bool {
	return k == KindSync
}

// Surfaced reports whether failures of this kind must reach the user.
// Validation and conflict errors require a decision only the caller can
// make; everything else degrades silently so offline use is never blocked.
func (k Kind) Surfaced() bool {
	return k == KindValidation || k == KindConflict
}
