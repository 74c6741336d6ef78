package engine

import (
	"errors"
	"fmt"
	"net/http"

	"godrive/store"
)

type AppError struct {
	HTTPCode int
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Err: err}
}

// wrapStoreErr maps store sentinels onto the operation error taxonomy:
// missing records surface as 404, connectivity as 503.
func wrapStoreErr(message string, err error) *AppError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newAppError(http.StatusNotFound, message+": record not found", err)
	case errors.Is(err, store.ErrUnavailable):
		return newAppError(http.StatusServiceUnavailable, message+": store unavailable", err)
	default:
		return newAppError(http.StatusInternalServerError, message, err)
	}
}
