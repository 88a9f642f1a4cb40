package parsing

import "fmt"

// AuthError represents a request rejected for an expired or invalid
// credential (HTTP 401). The orchestrator reacts to this with a single
// refresh-and-retry.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// RequestError represents a transport-level failure against the parsing
// service.
type RequestError struct {
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse request failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse request failed: %s", e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}
