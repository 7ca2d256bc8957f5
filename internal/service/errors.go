package service

import "fmt"

// RequestError is a caller-facing failure with a stable machine code. The
// handlers map it to a 4xx response; anything else stays a 500.
type RequestError struct {
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrUserNotFound      = &RequestError{Code: "USER_NOT_FOUND", Message: "User doesn't exist"}
	ErrNoConnections     = &RequestError{Code: "NO_CONNECTIONS", Message: "No platform connections to publish to"}
	ErrMediaItemNotFound = &RequestError{Code: "MEDIA_ITEM_NOT_FOUND", Message: "Media item doesn't exist"}
)
