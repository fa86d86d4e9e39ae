package jellyseerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid jellyseerr configuration")
	// ErrNoConnection indicates connection failure
	ErrNoConnection = errors.New("failed to connect to jellyseerr")
	// ErrUnauthorized indicates authentication failure
	ErrUnauthorized = errors.New("unable to authenticate with the jellyseerr instance, make sure a valid API key is set")
	// ErrNotInitialized indicates the instance has not completed initial setup
	ErrNotInitialized = errors.New("jellyseerr instance is not initialized")
)

// APIError represents an unexpected response from the Jellyseerr API
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("unexpected response with status code %d from '%s %s'", e.StatusCode, e.Method, e.URL)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// extractErrorMessage pulls the human-readable message out of an error
// response body. Jellyseerr uses either a "message" or an "error" key
// depending on the endpoint.
func extractErrorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := payload["error"].(string); ok && msg != "" {
		return msg
	}
	return ""
}
