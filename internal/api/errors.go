package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any 401 response. The token has already been
	// cleared when a caller sees it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedEnvelope is returned for a 2xx body that is not a
	// {content, message, errors} envelope.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
)

// TransportError means no response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Message and Errors come from the error
// envelope when the backend sent one.
type HTTPError struct {
	Status  int
	Message string
	Errors  []string
}

// Error returns the backend message verbatim when there is one.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 {
		return strings.Join(e.Errors, "; ")
	}
	if text := http.StatusText(e.Status); text != "" {
		return fmt.Sprintf("%d %s", e.Status, text)
	}
	return fmt.Sprintf("http status %d", e.Status)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

func newHTTPError(status int, body []byte) *HTTPError {
	herr := &HTTPError{Status: status}
	var env struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		herr.Message = env.Message
		herr.Errors = env.Errors
	}
	return herr
}
