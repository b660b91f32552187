package core

import "fmt"

// Error codes sent to clients.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeUnknownType    = "unknown_type"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodePersistFailed  = "persist_failed"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ValidationError reports a malformed submission. Nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError reports a store failure that halted a pipeline before broadcast.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// TagResolutionError reports a tag that could not be resolved or linked.
// The message is still broadcast without it.
type TagResolutionError struct {
	Tag string
	Err error
}

func (e *TagResolutionError) Error() string {
	return fmt.Sprintf("resolve tag %q: %v", e.Tag, e.Err)
}

func (e *TagResolutionError) Unwrap() error {
	return e.Err
}
