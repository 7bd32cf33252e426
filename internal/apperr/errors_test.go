package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestAuthError_Unwrap(t *testing.T) {
	cause := errors.New("invalid_grant")
	err := &AuthError{Message: "Authentication failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}

	wrapped := fmt.Errorf("callback: %w", err)
	var authErr *AuthError
	if !errors.As(wrapped, &authErr) {
		t.Error("Expected AuthError to be matchable after wrapping")
	}
}

func TestNotAuthenticated(t *testing.T) {
	err := NotAuthenticated()
	if err.Message != "Not authenticated" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Error() != "Not authenticated" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRemoteAPIError_Message(t *testing.T) {
	err := &RemoteAPIError{Status: 403, Message: "insufficient permissions"}
	want := "remote API error (status 403): insufficient permissions"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
