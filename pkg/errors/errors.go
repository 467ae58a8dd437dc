package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeAPI         ErrorType = "api"
	ErrorTypeIdentity    ErrorType = "identity"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// CodeNotLoggedIn is the envelope code the API answers for a session
// without a valid login
const CodeNotLoggedIn = -101

// Error represents an API error with type information.
// Code holds the HTTP status for transport failures and the envelope code
// for application-level failures.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error (code %d): %s [%s]", e.Type, e.Code, e.Message, e.URL)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRateLimited reports whether the server answered 429.
func (e *Error) IsRateLimited() bool {
	return e.Type == ErrorTypeRateLimit
}

// IdentityError is returned when no logged-in session can be found.
func IdentityError() *Error {
	return &Error{
		Type:    ErrorTypeIdentity,
		Message: "no logged-in session found: log in at https://www.bilibili.com and retry",
	}
}

// NewRequestError builds the error for a failed HTTP status.
func NewRequestError(url string, statusCode int) *Error {
	return &Error{
		Type:    TypeForStatus(statusCode),
		Message: fmt.Sprintf("HTTP status %d", statusCode),
		Code:    statusCode,
		URL:     url,
	}
}

// NewAPIError builds the error for a 2xx response carrying a non-zero code.
func NewAPIError(url string, code int, message string) *Error {
	if message == "" {
		message = "unknown API error"
	}
	return &Error{
		Type:    ErrorTypeAPI,
		Message: message,
		Code:    code,
		URL:     url,
	}
}

// TypeForStatus classifies an HTTP status code.
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsIdentity reports whether err is (or wraps) the identity failure.
func IsIdentity(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == ErrorTypeIdentity
}

// IsRateLimited reports whether err is (or wraps) a 429 failure.
func IsRateLimited(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.IsRateLimited()
}

// IsNotLoggedIn reports whether err is (or wraps) the API's "not logged in"
// answer. Repeating the request cannot change it.
func IsNotLoggedIn(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == ErrorTypeAPI && e.Code == CodeNotLoggedIn
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeIdentity:
		return false
	default:
		// Every failed attempt counts toward the retry budget, including
		// application-level codes and 4xx answers.
		return true
	}
}
