// Package errors provides shared error handling for the CRM services: outbound
// HTTP error parsing and the JSON error envelope every service writes.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	infrahttp "github.com/jonesrussell/north-crm/infrastructure/http"
)

const (
	// MinErrorStatusCode is the minimum HTTP status code considered an error
	MinErrorStatusCode = 400

	// MaxErrorBodyBytes caps how much of an error response is buffered.
	// Larger bodies are dropped whole, never relayed in part.
	MaxErrorBodyBytes = 1 << 20
)

// HTTPError represents a non-2xx response from another service. Body holds
// the raw response bytes so callers can relay them unchanged.
type HTTPError struct {
	StatusCode  int
	Status      string
	ContentType string
	Body        []byte
	Message     string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// ParseHTTPError builds an *HTTPError from a response with an error status.
// It returns nil for statuses below MinErrorStatusCode. The body is consumed.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	httpErr := &HTTPError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
	}

	body, err := infrahttp.ReadBody(resp.Body, MaxErrorBodyBytes)
	if err != nil {
		httpErr.Message = fmt.Sprintf("failed to read error response body: %v", err)
		return httpErr
	}
	httpErr.Body = body
	httpErr.Message = extractMessage(body)

	return httpErr
}

// extractMessage pulls a human readable message out of common JSON error
// shapes, falling back to the raw body.
func extractMessage(body []byte) string {
	var jsonErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Errors  []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}

	if json.Unmarshal(body, &jsonErr) != nil {
		return strings.TrimSpace(string(body))
	}

	if jsonErr.Message != "" {
		return jsonErr.Message
	}
	if jsonErr.Error != "" {
		return jsonErr.Error
	}

	if len(jsonErr.Errors) > 0 {
		details := make([]string, len(jsonErr.Errors))
		for i, e := range jsonErr.Errors {
			if e.Detail != "" {
				details[i] = e.Title + ": " + e.Detail
			} else {
				details[i] = e.Title
			}
		}
		return strings.Join(details, "; ")
	}

	return strings.TrimSpace(string(body))
}

// AsHTTPError unwraps err to an *HTTPError if one is in the chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// GetHTTPStatusCode extracts the HTTP status code from an error if it's an HTTPError
func GetHTTPStatusCode(err error) (int, bool) {
	if httpErr, ok := AsHTTPError(err); ok {
		return httpErr.StatusCode, true
	}
	return 0, false
}

// IsClientError reports whether err carries a 4xx status.
func IsClientError(err error) bool {
	code, ok := GetHTTPStatusCode(err)
	return ok && code >= MinErrorStatusCode && code < http.StatusInternalServerError
}
