package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{E(KindInvalidInput, "bad"), http.StatusBadRequest},
		{E(KindNotFound, "missing"), http.StatusNotFound},
		{E(KindConflict, "busy"), http.StatusConflict},
		{E(KindUnavailable, "down"), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("outer: %w", E(KindNotFound, "inner")), http.StatusNotFound},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such run")
	err := Wrap(KindNotFound, cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error lost its cause")
	}
	if err.Error() != "no such run" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if Wrap(KindInternal, nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}

func TestErrorFallsBackToKind(t *testing.T) {
	t.Parallel()

	err := &Error{Kind: KindConflict}
	if got := err.Error(); got != "conflict" {
		t.Fatalf("Error() = %q", got)
	}
}
