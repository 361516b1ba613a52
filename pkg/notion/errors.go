package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorKind classifies every failure the client can surface.
type ErrorKind string

const (
	KindAuthentication          ErrorKind = "AuthenticationError"
	KindNotFound                ErrorKind = "NotFoundError"
	KindValidation              ErrorKind = "ValidationError"
	KindRateLimited             ErrorKind = "RateLimited"
	KindServiceUnavailable      ErrorKind = "ServiceUnavailable"
	KindTransport               ErrorKind = "TransportError"
	KindUnsupportedPropertyKind ErrorKind = "UnsupportedPropertyKind"
	KindMalformedProperty       ErrorKind = "MalformedProperty" // also bodies that are not the expected JSON shape
	KindPaginationStalled       ErrorKind = "PaginationStalled"
)

// Retryable reports whether the transport may retry a failure of this kind.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServiceUnavailable, KindTransport:
		return true
	default:
		return false
	}
}

// APIError is the single error type returned by the client. Kind is stable and
// meant for programmatic branching; the remaining fields carry context.
type APIError struct {
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// StatusCode is the HTTP status of the final attempt, 0 when no response was received.
	StatusCode int `json:"status,omitempty" yaml:"status,omitempty"`
	// Code is the service error code, e.g. "validation_error".
	Code    string `json:"code,omitempty"    yaml:"code,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Property names the offending property for codec errors.
	Property string `json:"property,omitempty" yaml:"property,omitempty"`
	// Written is the id of a page the service created or updated although its
	// response could not be decoded. Such a write must not be repeated.
	Written string `json:"written,omitempty" yaml:"written,omitempty"`
	// Attempts is the number of HTTP attempts made before giving up.
	Attempts int `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	// RetryAfter is the server's retry hint on the final response, if any.
	RetryAfter time.Duration `json:"retry_after,omitempty" yaml:"retry_after,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}

	if e.Property != "" {
		fmt.Fprintf(&b, " property %q", e.Property)
	}

	if e.Written != "" {
		fmt.Fprintf(&b, " (page %s was written)", e.Written)
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if e.Attempts > 1 {
		fmt.Fprintf(&b, " (after %d attempts)", e.Attempts)
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches any *APIError of the same kind, so the Err* sentinels below work
// with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// Retryable reports whether the error kind is transient.
func (e *APIError) Retryable() bool {
	return e.Kind.Retryable()
}

// Kind sentinels for errors.Is.
var (
	ErrAuthentication          = &APIError{Kind: KindAuthentication}
	ErrNotFound                = &APIError{Kind: KindNotFound}
	ErrValidation              = &APIError{Kind: KindValidation}
	ErrRateLimited             = &APIError{Kind: KindRateLimited}
	ErrServiceUnavailable      = &APIError{Kind: KindServiceUnavailable}
	ErrTransport               = &APIError{Kind: KindTransport}
	ErrUnsupportedPropertyKind = &APIError{Kind: KindUnsupportedPropertyKind}
	ErrMalformedProperty       = &APIError{Kind: KindMalformedProperty}
	ErrPaginationStalled       = &APIError{Kind: KindPaginationStalled}
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired    = errors.New("config is required")
	ErrTokenRequired     = errors.New("integration token is required")
	ErrReferenceRequired = errors.New("entity reference is required")
	ErrNameRequired      = errors.New("name is required")
)

// KindForStatus maps a non-2xx HTTP status to an error kind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= http.StatusInternalServerError:
		return KindServiceUnavailable
	default:
		return KindValidation
	}
}

// KindOf returns the kind of err, or "" if err is not an *APIError.
func KindOf(err error) ErrorKind {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return ""
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsUnauthorized checks if the error is an authentication error.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindAuthentication
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// Describe returns a one-line explanation of kind suitable for end users.
func Describe(kind ErrorKind) string {
	switch kind {
	case KindAuthentication:
		return "Authentication failed. Check the integration token."
	case KindNotFound:
		return "Resource not found. Make sure the database or page is shared with the integration."
	case KindValidation:
		return "The service rejected the request as invalid."
	case KindRateLimited:
		return "Rate limit exceeded. Wait before retrying."
	case KindServiceUnavailable:
		return "The service is temporarily unavailable."
	case KindTransport:
		return "Network error while contacting the service."
	case KindUnsupportedPropertyKind:
		return "The property type is not supported by this client."
	case KindMalformedProperty:
		return "A property value or service response is malformed."
	case KindPaginationStalled:
		return "The service returned the same page cursor twice; listing aborted."
	default:
		return "Unexpected error."
	}
}

// ServiceError is the JSON error body returned by the service.
type ServiceError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseServiceError parses an error response body.
func ParseServiceError(data []byte) (*ServiceError, error) {
	var svcErr ServiceError

	err := json.Unmarshal(data, &svcErr)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal service error: %w", err)
	}

	return &svcErr, nil
}
