package errors

import (
	"fmt"
	"net"
	"testing"

	apperrors "github.com/oakmont/portal-api/internal/errors"
)

func TestClassifyAppErrorCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{apperrors.Provider("token endpoint returned 502"), "provider_error"},
		{apperrors.SilentAuthRequired("refresh token revoked"), "silent_auth_required"},
		{apperrors.Directory("graph returned 503"), "directory_error"},
		{fmt.Errorf("exchange authorization code: %w", apperrors.Provider("boom")), "provider_error"},
		{apperrors.Wrap(&net.AddrError{Err: "x", Addr: "y"}, apperrors.ErrCodeTimeout, "dial"), "timeout"},
	}

	for _, tc := range tests {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestClassifyFallsBackToTypeName(t *testing.T) {
	t.Parallel()

	if got := Classify(&net.AddrError{Err: "bad", Addr: "addr"}); got != "net_addrerror" {
		t.Fatalf("Classify(*net.AddrError) = %q", got)
	}
	if got := Classify(fmt.Errorf("wrap: %w", &net.AddrError{Err: "bad", Addr: "addr"})); got != "net_addrerror" {
		t.Fatalf("Classify(wrapped *net.AddrError) = %q", got)
	}
}

func TestClassifyNil(t *testing.T) {
	t.Parallel()

	if got := Classify(nil); got != "" {
		t.Fatalf("Classify(nil) = %q, want empty string", got)
	}
}
