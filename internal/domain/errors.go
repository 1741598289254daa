package domain

import (
	"errors"
	"fmt"
)

// Lifecycle errors returned by the public server and watcher APIs.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("labship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("labship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("labship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("labship: invalid configuration")
)

// Kind classifies a transfer failure.
type Kind int

const (
	// KindUnknown is any error not produced by this module.
	KindUnknown Kind = iota
	// KindConnection covers dial, read, write and timeout failures.
	KindConnection
	// KindRouting means the filename matched no type tag or no group id.
	KindRouting
	// KindIO covers local disk and permission failures.
	KindIO
	// KindProtocol means the peer sent an unexpected token or order.
	KindProtocol
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindRouting:
		return "routing"
	case KindIO:
		return "io"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *TransferError kind.
var (
	ErrConnection = &kindError{KindConnection}
	ErrRouting    = &kindError{KindRouting}
	ErrIO         = &kindError{KindIO}
	ErrProtocol   = &kindError{KindProtocol}
)

type kindError struct{ kind Kind }

func (e *kindError) Error() string { return "labship: " + e.kind.String() + " error" }

// TransferError describes a failure at one step of a transfer.
type TransferError struct {
	Kind Kind
	// Op names the step that failed, e.g. "dial", "handshake", "archive".
	Op string
	// Path is the file involved, if any.
	Path string
	Err  error
}

// NewError builds a TransferError. err may be nil.
func NewError(kind Kind, op, path string, err error) *TransferError {
	return &TransferError{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *TransferError) Error() string {
	msg := e.Kind.String() + " error: " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransferError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *TransferError) Is(target error) bool {
	k, ok := target.(*kindError)
	return ok && k.kind == e.Kind
}

// Retryable reports whether the same file may succeed on a later attempt.
// Routing rejections are permanent for a given filename and table.
func (e *TransferError) Retryable() bool {
	return e.Kind != KindRouting
}

// Classify returns the kind of the first TransferError in err's chain.
func Classify(err error) Kind {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err should be retried on the next poll cycle.
// Unknown errors are treated as retryable so a file is never dropped silently.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransferError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return true
}

// Errorf is shorthand for NewError with a formatted cause.
func Errorf(kind Kind, op, path, format string, args ...any) *TransferError {
	return NewError(kind, op, path, fmt.Errorf(format, args...))
}
