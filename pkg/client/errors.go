package client

import (
	"errors"
	"fmt"

	"github.com/seabird-chat/seabird-radio/pkg/protocol"
)

// Sentinel errors.
var (
	// ErrSessionClosed is returned by Send when the session has left the
	// Authenticated state.
	ErrSessionClosed = errors.New("client: session closed")

	// ErrDuplicateCommand is returned by NewRouter when two handlers
	// register the same command name.
	ErrDuplicateCommand = errors.New("client: duplicate command registration")
)

// TransportError wraps a network-level failure: dial errors, broken reads
// and writes, unexpected stream termination. Transport errors are always
// recoverable by reconnecting.
type TransportError struct {
	Op  string // The operation that failed ("dial", "handshake", "read", "send")
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("client: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError is a handshake rejection by the core. Whether it is worth
// retrying depends on the status: a NotAuthorized or VersionMismatch
// rejection will never succeed on retry and is fatal to the process, while
// ServerBusy or InternalError are transient.
type AuthError struct {
	Status  protocol.HandshakeStatus
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: handshake rejected: %s", e.Status)
	}
	return fmt.Sprintf("client: handshake rejected: %s: %s", e.Status, e.Message)
}

// Fatal reports whether the rejection is permanent. Fatal auth errors stop
// the supervisor instead of entering backoff: retrying a revoked token only
// produces a reconnect storm.
func (e *AuthError) Fatal() bool {
	return !e.Status.Retryable()
}

// CodedError carries a protocol response code alongside user-facing text.
// Handlers return it to control how their failure is reported to the
// requesting user; the router maps any other error to a generic
// CodeHandlerError.
type CodedError struct {
	Code protocol.Code
	Text string
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("client: %s: %s", e.Code, e.Text)
}

// NewCodedError creates a CodedError with the given code and text.
func NewCodedError(code protocol.Code, text string) *CodedError {
	return &CodedError{Code: code, Text: text}
}
