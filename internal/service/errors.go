// Package service holds the application logic between HTTP handlers and
// the repositories: authentication, inquiry intake and lifecycle,
// attachments and projects.
package service

import (
	"errors"
	"fmt"
)

// Error codes returned to clients.  Handlers map each code to an HTTP
// status in one place.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodeSpamRejected       = "SPAM_REJECTED"
	CodeCaptchaRequired    = "CAPTCHA_REQUIRED"
	CodeCaptchaFailed      = "CAPTCHA_FAILED"
	CodeInvalidFileType    = "INVALID_FILE_TYPE"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeConflict           = "CONFLICT"
	CodeStorageError       = "STORAGE_ERROR"
	CodeNotificationFailed = "NOTIFICATION_FAILED"
)

// Error is the typed error every service returns.  Field names the
// offending input for validation failures.
type Error struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	se, ok := AsError(err)
	return ok && se.Code == code
}

func errUnauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func errValidation(field, msg string) *Error {
	return &Error{Code: CodeValidationFailed, Field: field, Message: msg}
}

func errNotFound(msg string, err error) *Error {
	return &Error{Code: CodeNotFound, Message: msg, Err: err}
}

func errStorage(msg string, err error) *Error {
	return &Error{Code: CodeStorageError, Message: msg, Err: err}
}

// errSpam is shared by every spam check; the message never says which one fired.
func errSpam() *Error {
	return &Error{Code: CodeSpamRejected, Message: "spam detected"}
}
