package platform

import (
	"errors"
	"fmt"
)

// Error is a classified publish failure: a stable code for the result row
// plus a human-readable message. Anything a client cannot attribute to the
// platform stays an ordinary error and is recorded as PUBLISH_FAILED.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Errf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

const (
	CodeClientNotFound     = "CLIENT_NOT_FOUND"
	CodePublishFailed      = "PUBLISH_FAILED"
	CodeNotImplemented     = "NOT_IMPLEMENTED"
	CodeTokenRefreshFailed = "TOKEN_REFRESH_FAILED"
	CodeMediaFetchFailed   = "MEDIA_FETCH_FAILED"
)

// Classify extracts the code and message to store on a failed result.
func Classify(err error) (code, message string) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code, perr.Message
	}
	return CodePublishFailed, err.Error()
}
