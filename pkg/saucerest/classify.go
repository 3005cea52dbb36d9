package saucerest

import (
	"net/http"
	"strings"
)

// Outcome is the kind of result a status code maps to.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotAuthorized
	OutcomeNotFound
	OutcomeServiceError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotAuthorized:
		return "not_authorized"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}

// Result is the classified form of a response.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Body       []byte
}

// Classify maps a status code to an Outcome. Only the status code is
// inspected; a 2xx with an empty or malformed body is still a success.
func Classify(statusCode int, body []byte) Result {
	res := Result{StatusCode: statusCode}
	switch {
	case statusCode >= 200 && statusCode <= 299:
		res.Outcome = OutcomeSuccess
		res.Body = body
	case statusCode == http.StatusUnauthorized:
		res.Outcome = OutcomeNotAuthorized
	case statusCode == http.StatusNotFound:
		res.Outcome = OutcomeNotFound
		res.Body = body
	default:
		res.Outcome = OutcomeServiceError
		res.Body = body
	}
	return res
}

// Err returns the typed error for r, or nil on success.
func (r Result) Err(method, path string) error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeNotAuthorized:
		return &NotAuthorizedError{Method: method, Path: path}
	case OutcomeNotFound:
		return &NotFoundError{Method: method, Path: path}
	default:
		return &ServiceError{
			Method:     method,
			Path:       path,
			StatusCode: r.StatusCode,
			Body:       bodySnippet(r.Body),
		}
	}
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
