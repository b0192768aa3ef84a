// Package errs implements the messaging core's error taxonomy (spec §7):
// a small set of failure kinds carried as structured payloads instead of
// as the exception-with-errinfo-attributes style of the source this
// subsystem was distilled from.
package errs

import (
	"fmt"

	"github.com/go-stack/stack"
	"github.com/pkg/errors"

	"github.com/ground-x/blmessaging/common"
)

// Kind classifies a failure the way the broker's callers need to branch
// on it (retry, map to an HTTP status, log and move on, or abort).
type Kind int

const (
	_ Kind = iota
	ProtocolFailure
	ConnectivityFailure
	TargetPeerNotFound
	Timeout
	AuthorizationFailure
	ChunkNotFound
	ServerFailure
	ProgrammerError
)

func (k Kind) String() string {
	switch k {
	case ProtocolFailure:
		return "ProtocolFailure"
	case ConnectivityFailure:
		return "ConnectivityFailure"
	case TargetPeerNotFound:
		return "TargetPeerNotFound"
	case Timeout:
		return "Timeout"
	case AuthorizationFailure:
		return "AuthorizationFailure"
	case ChunkNotFound:
		return "ChunkNotFound"
	case ServerFailure:
		return "ServerFailure"
	case ProgrammerError:
		return "ProgrammerError"
	default:
		return "Unknown"
	}
}

// Error is the sum-type error every messaging-core package returns.
type Error struct {
	Kind      Kind
	Message   string
	ChunkID   *common.ChunkID
	ErrorCode int32 // POSIX-style error value, valid when non-zero
	Retriable bool
	Cause     error
	stack     stack.CallStack
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Stack renders the call stack captured at construction, for trace-level
// logging per spec §7 ("trace-level logs include the full cause chain").
func (e *Error) Stack() string {
	return fmt.Sprintf("%+v", e.stack)
}

func new_(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		stack:   stack.Trace().TrimRuntime(),
	}
}

func New(kind Kind, message string) *Error { return new_(kind, message, nil) }

func Wrap(kind Kind, message string, cause error) *Error {
	return new_(kind, message, errors.Wrap(cause, message))
}

func WithChunk(kind Kind, message string, chunkID common.ChunkID, cause error) *Error {
	e := new_(kind, message, cause)
	e.ChunkID = &chunkID
	return e
}

func WithCode(kind Kind, message string, code int32) *Error {
	e := new_(kind, message, nil)
	e.ErrorCode = code
	return e
}

// AsServerFailure wraps an arbitrary upstream error in a ServerFailure,
// preserving it as a nested cause, per spec §7's propagation rule for
// network tasks surfacing errors across backend boundaries.
func AsServerFailure(message string, cause error) *Error {
	if se, ok := cause.(*Error); ok {
		return se
	}
	return Wrap(ServerFailure, message, cause)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// IsExpectedSilent reports whether err is one of the three connection
// errors the transport layer swallows rather than propagates: EOF on a
// closed TLS probe, operation_aborted on cancellation, and connection
// reset by peer during shutdown (the third is the original_source
// supplement noted in SPEC_FULL.md §4).
func IsExpectedSilent(err error) bool {
	e, ok := err.(*Error)
	if !ok || e.Kind != ConnectivityFailure {
		return false
	}
	switch e.Message {
	case reasonEOFProbe, reasonAborted, reasonResetDuringShutdown:
		return true
	default:
		return false
	}
}

const (
	reasonEOFProbe             = "eof-on-probe"
	reasonAborted              = "operation-aborted"
	reasonResetDuringShutdown  = "reset-during-shutdown"
)

func NewExpectedEOF() *Error           { return New(ConnectivityFailure, reasonEOFProbe) }
func NewExpectedAborted() *Error       { return New(ConnectivityFailure, reasonAborted) }
func NewExpectedResetOnShutdown() *Error { return New(ConnectivityFailure, reasonResetDuringShutdown) }
