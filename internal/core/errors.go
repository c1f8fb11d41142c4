package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNameTaken   = "name_taken"
	ErrCodeInvalidName = "invalid_name"
	ErrCodeBadRequest  = "bad_request"
)

var (
	ErrNameTaken   = errors.New("name taken")
	ErrInvalidName = errors.New("invalid name")
	ErrBadRequest  = errors.New("bad request")
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

// AsCoreError maps a domain error to its coded form.
func AsCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrNameTaken):
		return coreError(ErrCodeNameTaken, err.Error())
	case errors.Is(err, ErrInvalidName):
		return coreError(ErrCodeInvalidName, err.Error())
	default:
		return coreError(ErrCodeBadRequest, err.Error())
	}
}
