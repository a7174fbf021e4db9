package attendapi

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Client talks to the attendance backend API.
type Client struct {
	Url       string
	parsedURL *url.URL
}

// ErrRecognitionUnsupported signals that the backend deployment has no
// recognition runtime (HTTP 501). Callers treat this as a status, not a
// failure: zero detections, no retry escalation.
var ErrRecognitionUnsupported = errors.New("recognition unsupported on this deployment")

// ErrDetectionUnsupported signals that the backend deployment has no
// face detection stack (HTTP 501 from /detect).
var ErrDetectionUnsupported = errors.New("detection unsupported on this deployment")

// NewClient creates a client for the attendance backend.
// The base URL should include the API prefix (e.g., http://localhost:5000/api).
func NewClient(rawURL string) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid attendance API URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("attendance API URL must be absolute: %q", rawURL)
	}
	return &Client{Url: rawURL, parsedURL: parsed}, nil
}

// resolveURL builds a full URL from the base API URL and the given path segments.
// If the last segment contains a query string, it is split so JoinPath only
// receives the path portion and the query is appended.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "status 404")
}
