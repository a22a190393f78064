package service

import "errors"

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrExternal       = errors.New("external system error")
)

// Error is a business error with a stable code for API clients
type Error struct {
	Code    string
	Message string
	kind    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.kind
}

func newError(kind error, code, message string) *Error {
	return &Error{Code: code, Message: message, kind: kind}
}

var (
	errMissingUser    = newError(ErrForbidden, "999", "Missing user info")
	errInvalidRequest = newError(ErrInvalidRequest, "0041", "Invalid request")
	errInvalidReverse = newError(ErrInvalidRequest, "0042", "Invalid reverse request")
	errAssetNotFound  = newError(ErrNotFound, "0040", "Asset Not Found in given record")
	errNoRecord       = newError(ErrNotFound, "0050", "No record found")
	errAssetExists    = newError(ErrConflict, "0030", "Asset Already exist")
	errExternalCall   = newError(ErrExternal, "0001", "Fail on external system call")
)
