package saucerest

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrTransport         = errors.New("saucerest: transport failure")
	ErrNotAuthorized     = errors.New("saucerest: not authorized")
	ErrNotFound          = errors.New("saucerest: not found")
	ErrService           = errors.New("saucerest: service error")
	ErrDecode            = errors.New("saucerest: decode error")
	ErrMalformedURL      = errors.New("saucerest: malformed url")
	ErrUnsupportedMethod = errors.New("saucerest: unsupported http method")
)

// TransportError reports a connect, write or read failure. The request may
// or may not have reached the server.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// NotAuthorizedError is returned for HTTP 401. The response body is discarded.
type NotAuthorizedError struct {
	Method string
	Path   string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("%s %s: status %d: not authorized", e.Method, e.Path, http.StatusUnauthorized)
}

func (e *NotAuthorizedError) Is(target error) bool { return target == ErrNotAuthorized }

// NotFoundError is returned for HTTP 404.
type NotFoundError struct {
	Method string
	Path   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: status %d: not found", e.Method, e.Path, http.StatusNotFound)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ServiceError carries any other non-2xx status together with the raw body.
type ServiceError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *ServiceError) Is(target error) bool { return target == ErrService }

// DecodeError is returned when a 2xx body is not the expected JSON.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error        { return e.Err }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// MalformedURLError is returned by BuildConnection for URLs that do not
// parse or are not absolute.
type MalformedURLError struct {
	URL string
	Err error
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed url %q: %v", e.URL, e.Err)
}

func (e *MalformedURLError) Unwrap() error        { return e.Err }
func (e *MalformedURLError) Is(target error) bool { return target == ErrMalformedURL }

// IsRetryable reports whether a caller-side retry could succeed: transport
// failures, 429 and 5xx. Authorization, not-found and decode failures are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransport) {
		return true
	}
	var svc *ServiceError
	if errors.As(err, &svc) {
		return svc.StatusCode == http.StatusTooManyRequests || svc.StatusCode >= 500
	}
	return false
}
