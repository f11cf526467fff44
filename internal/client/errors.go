package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Server error codes the client reacts to.
const (
	CodeAlreadyInBatch = "ALREADY_IN_BATCH"
	CodeNotFound       = "NOT_FOUND"
	CodeNotInBatch     = "NOT_IN_BATCH"
	CodeValidation     = "VALIDATION_ERROR"
)

// APIError is a failure reported by the server, either through the status
// code or through success=false in a 2xx body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d, %s): %s", e.Status, e.Code, e.Message)
}

func newAPIError(status int, env *envelope, decodeErr error, raw []byte) *APIError {
	e := &APIError{Status: status}
	if decodeErr != nil {
		e.Message = strings.TrimSpace(string(raw))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}
	e.Message = env.Message
	if env.Error != nil {
		e.Code = env.Error.Code
		e.Fields = env.Error.Fields
		if env.Error.Message != "" {
			e.Message = env.Error.Message
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// IsAlreadyMember reports the duplicate-enrollment reply, which callers
// treat as a no-op rather than a failure.
func IsAlreadyMember(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeAlreadyInBatch
}

// IsNotFound reports a 404 or a NOT_FOUND code.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == CodeNotFound
}

// Message returns the server-supplied message when there is one, otherwise
// the error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
