package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidQuery indicates an empty or unusable query
	InvalidQuery ErrorCode = "INVALID_QUERY"
	// InvalidReference indicates a malformed repository reference
	InvalidReference ErrorCode = "INVALID_REFERENCE"
	// BaselineUnavailable indicates the remote baseline could not be reached
	BaselineUnavailable ErrorCode = "BASELINE_UNAVAILABLE"
	// IndexMissing indicates no persisted index exists
	IndexMissing ErrorCode = "INDEX_MISSING"
	// IndexStale indicates the persisted index no longer matches its inputs
	IndexStale ErrorCode = "INDEX_STALE"
	// Timeout indicates a time-boxed remote call ran out of time
	Timeout ErrorCode = "TIMEOUT"
	// InvariantViolation indicates an internal invariant was broken (caching bug, never a user error)
	InvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Key         string        `json:"key,omitempty"`
}

// CanonError represents a canon error with code, message, and suggestions
type CanonError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewCanonError creates a new CanonError
func NewCanonError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *CanonError {
	return &CanonError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// New creates a CanonError carrying the default fixes registered for its code.
func New(code ErrorCode, message string, cause error) *CanonError {
	return NewCanonError(code, message, cause, GetSuggestedFixes(code))
}

// Error implements the error interface
func (e *CanonError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CanonError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *CanonError) WithDetails(details interface{}) *CanonError {
	e.Details = details
	return e
}

// Fatal reports whether the error indicates a bug rather than a recoverable condition.
func (e *CanonError) Fatal() bool {
	return e.Code == InvariantViolation || e.Code == InternalError
}

// CodeOf extracts the ErrorCode from anywhere in an error chain.
// Returns the empty string when no CanonError is present.
func CodeOf(err error) ErrorCode {
	var ce *CanonError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "canon index",
			Safe:        true,
			Description: "Build the document index",
		},
	},
	IndexStale: {
		{
			Type:        RunCommand,
			Command:     "canon index --force",
			Safe:        true,
			Description: "Rebuild the document index",
		},
	},
	BaselineUnavailable: {
		{
			Type:        RunCommand,
			Command:     "canon invalidate",
			Safe:        true,
			Description: "Drop cached baseline data and retry the fetch",
		},
		{
			Type:        EditConfig,
			Key:         "baseline.token",
			Description: "Configure an access token for private baseline repositories",
		},
	},
	InvalidReference: {
		{
			Type:        OpenDocs,
			Description: "Use owner/repo[@ref] or https://github.com/owner/repo[/tree/ref]",
		},
	},
	Timeout: {
		{
			Type:        EditConfig,
			Key:         "baseline.fetchTimeoutMs",
			Description: "Increase the remote fetch time box",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
