package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/urls"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection reset, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates the API key was rejected
	ErrTypeAuth
	// ErrTypeHTTP indicates an HTTP-level error (non-200 status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a parsing error (malformed JSON, reply without text)
	ErrTypeParse
	// ErrTypeConfig indicates missing local configuration (no API key)
	ErrTypeConfig
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the endpoint refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeRateLimit indicates the quota was exceeded (HTTP 429)
	ErrTypeRateLimit
	// ErrTypeBlocked indicates the prompt or reply was blocked by safety filters
	ErrTypeBlocked
	// ErrTypeCanceled indicates the caller cancelled the request
	ErrTypeCanceled
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeConfig:
		return "Configuration Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeRateLimit:
		return "Rate Limited"
	case ErrTypeBlocked:
		return "Blocked"
	case ErrTypeCanceled:
		return "Canceled"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError represents an error that occurred while calling the endpoint
type APIError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Status         string              // API status string, e.g. "RESOURCE_EXHAUSTED"
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Endpoint       string              // Host that was called (for context)
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed error
func ClassifyNetworkError(err error, endpoint string) *APIError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &APIError{
			Type:     ErrTypeCanceled,
			Message:  "Request cancelled",
			Err:      err,
			Endpoint: endpoint,
		}
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &APIError{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Endpoint:       endpoint,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			Endpoint:       endpoint,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &APIError{
				Type:           ErrTypeConnectionRefused,
				Message:        "Endpoint refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Endpoint:       endpoint,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &APIError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Endpoint:       endpoint,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &APIError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Endpoint:       endpoint,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Recursively classify the underlying error
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &APIError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Endpoint:       endpoint,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *APIError {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &APIError{
		Type:    ErrTypeNetwork,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *APIError {
	return &APIError{
		Type:    ErrTypeConfig,
		Message: message,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(statusCode int, message string) *APIError {
	return &APIError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *APIError {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewAuthError(statusCode, message)
	case statusCode == http.StatusTooManyRequests:
		return &APIError{
			Type:       ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
		}
	}
	return &APIError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *APIError {
	return &APIError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewBlockedError creates a safety-filter error
func NewBlockedError(reason string) *APIError {
	return &APIError{
		Type:    ErrTypeBlocked,
		Message: fmt.Sprintf("response blocked (%s)", reason),
	}
}

func typeOf(err error) (ErrorType, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type, true
	}
	return ErrTypeUnknown, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS, etc.)
func IsNetworkError(err error) bool {
	t, ok := typeOf(err)
	return ok && (t == ErrTypeNetwork ||
		t == ErrTypeTimeout ||
		t == ErrTypeConnectionRefused ||
		t == ErrTypeDNS)
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeAuth
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeConfig
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeParse
}

// IsRateLimitError checks if an error is a quota error
func IsRateLimitError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeRateLimit
}

// asAPIError also maps the advisor failures that never reach the endpoint.
func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr, true
	case errors.Is(err, advisor.ErrMissingCredential):
		return NewConfigError(err.Error()), true
	case errors.Is(err, advisor.ErrEmptyReply):
		return NewParseError(err.Error(), nil), true
	}
	return nil, false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeConfig:
		return strings.Join([]string{
			"No API key is configured.",
			"Troubleshooting:",
			"  • Set GEMINI_API_KEY (or API_KEY) in your environment",
			"  • Or put it in a .env file in the current directory",
			"  • Create a key at " + urls.GeminiAPIKeys,
		}, "\n")

	case ErrTypeAuth:
		return strings.Join([]string{
			"The API key was rejected.",
			"Troubleshooting:",
			"  • Check that the key was copied completely",
			"  • Verify the key has access to the Generative Language API",
			"  • Create a new key at " + urls.GeminiAPIKeys,
		}, "\n")

	case ErrTypeRateLimit:
		return strings.Join([]string{
			"The API quota was exceeded.",
			"Troubleshooting:",
			"  • Wait a minute and ask again",
			"  • Check your quota in the Google AI Studio console",
		}, "\n")

	case ErrTypeTimeout:
		return strings.Join([]string{
			"The endpoint did not respond in time.",
			"Troubleshooting:",
			"  • Check your internet connection",
			"  • Try increasing advisor.timeout in the config file",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The endpoint refused the connection.",
			"Troubleshooting:",
			"  • Check advisor.endpoint in the config file",
			"  • A proxy or firewall may be blocking outgoing HTTPS",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the endpoint hostname.",
			"Troubleshooting:",
			"  • Check your network DNS settings",
			"  • Check advisor.endpoint in the config file",
		}, "\n")

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}

		switch apiErr.NetworkSubtype {
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			hint = append(hint, "The endpoint is not reachable from this machine.",
				"Troubleshooting:",
				"  • Check that you are online",
				"  • Check VPN or proxy settings")
		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Try again in a moment")
		}

		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		if apiErr.StatusCode >= 500 {
			return fmt.Sprintf("The service returned an error (HTTP %d). Try again later.", apiErr.StatusCode)
		}
		return fmt.Sprintf("The service returned HTTP error %d. Check advisor.model in the config file.", apiErr.StatusCode)

	case ErrTypeParse:
		return "The service returned a response that could not be read. Try again."

	case ErrTypeBlocked:
		return "The question or answer was blocked by the service's safety filters. Rephrase the question."

	case ErrTypeCanceled:
		return "The request was cancelled."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeConfig:
		return "No API key configured"
	case ErrTypeAuth:
		return "API key rejected"
	case ErrTypeRateLimit:
		return "Quota exceeded - try again later"
	case ErrTypeTimeout:
		return "Endpoint not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Endpoint refused connection"
	case ErrTypeDNS:
		return "Cannot resolve endpoint hostname"
	case ErrTypeNetwork:
		switch apiErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Endpoint unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check connection"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Service error (HTTP %d)", apiErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse service response"
	case ErrTypeBlocked:
		return "Blocked by safety filters"
	case ErrTypeCanceled:
		return "Request cancelled"
	default:
		return apiErr.Message
	}
}
