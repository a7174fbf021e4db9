package attendapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Recognize submits an encoded frame for face recognition. The threshold
// is the backend's match floor in the 0..1 range.
//
// A 501 response means the deployment has no recognition runtime; it is
// surfaced as ErrRecognitionUnsupported so callers can distinguish a
// missing capability from a transient failure.
func (c *Client) Recognize(ctx context.Context, frame []byte, threshold float64) (*RecognizeResult, error) {
	payload, err := json.Marshal(map[string]any{
		"frame":     base64.StdEncoding.EncodeToString(frame),
		"threshold": threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL("recognize"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decoding.
	case http.StatusNotImplemented:
		return nil, ErrRecognitionUnsupported
	default:
		return nil, fmt.Errorf("recognize failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result RecognizeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal recognize response: %w", err)
	}

	return &result, nil
}
