package engine

import (
	"errors"
	"net/http"
	"testing"

	"godrive/store"
)

func TestAppErrorNilReceiver(t *testing.T) {
	var appErr *AppError
	if appErr.Error() != "" {
		t.Fatalf("nil receiver must render empty")
	}
	if appErr.Unwrap() != nil {
		t.Fatalf("nil receiver must unwrap to nil")
	}
}

func TestAppErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	appErr := newAppError(http.StatusInternalServerError, "something failed", cause)

	if !errors.Is(appErr, cause) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
	if appErr.Error() != "something failed: boom" {
		t.Fatalf("unexpected message: %q", appErr.Error())
	}

	bare := newAppError(http.StatusBadRequest, "bad input", nil)
	if bare.Error() != "bad input" {
		t.Fatalf("unexpected message: %q", bare.Error())
	}
}

func TestWrapStoreErrMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		appErr := wrapStoreErr("op", tc.err)
		if appErr.HTTPCode != tc.code {
			t.Fatalf("%v: expected HTTP %d, got %d", tc.err, tc.code, appErr.HTTPCode)
		}
		if !errors.Is(appErr, tc.err) {
			t.Fatalf("%v: cause lost", tc.err)
		}
	}
}
