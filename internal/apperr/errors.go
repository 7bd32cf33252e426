// Package apperr defines the error taxonomy shared across the import pipeline.
package apperr

import "fmt"

// AuthError indicates a missing or rejected credential: an absent
// authorization code, a failed token exchange, or a session without
// stored tokens.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Cause }

// NotAuthenticated is the AuthError returned for any operation that
// requires stored tokens when the session has none.
func NotAuthenticated() *AuthError {
	return &AuthError{Message: "Not authenticated"}
}

// RemoteAPIError carries the status and message of a failed call to the
// Google Drive or Sheets API.
type RemoteAPIError struct {
	Status  int
	Message string
	Cause   error
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote API error (status %d): %s", e.Status, e.Message)
}

func (e *RemoteAPIError) Unwrap() error { return e.Cause }

// ValidationError indicates a malformed request: a bad column mapping,
// a missing required field, or an unparsable body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
