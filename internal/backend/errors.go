package backend

import (
	"fmt"
	"time"
)

// NotFoundError means the route or resource does not exist (404).
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backend: %s not found", e.Path)
}

// AuthenticationError means the bearer credential is missing, expired or
// rejected (401).
type AuthenticationError struct {
	Path    string
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: authentication failed for %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("backend: authentication failed for %s", e.Path)
}

// ForbiddenError means the credential is valid but not allowed to read or
// change this resource (403).
type ForbiddenError struct {
	Path    string
	Message string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("backend: access to %s forbidden", e.Path)
}

type TimeoutError struct {
	Path  string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend: %s timed out after %s", e.Path, e.After)
}

// TransportError covers network failures and unexpected HTTP statuses.
type TransportError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend: %s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("backend: %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is a response that arrived but is not a usable
// success envelope, including a 200 carrying success=false.
type MalformedResponseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("backend: malformed response from %s: %s", e.Path, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
