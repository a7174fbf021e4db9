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

// Detect submits an encoded frame for face detection only. The backend
// answers with bounding boxes and no identities; deployments without a
// CV stack return 501, surfaced as ErrDetectionUnsupported.
func (c *Client) Detect(ctx context.Context, frame []byte) (*DetectResult, error) {
	payload, err := json.Marshal(map[string]any{
		"frame": base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL("detect"), bytes.NewReader(payload))
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
		return nil, ErrDetectionUnsupported
	default:
		return nil, fmt.Errorf("detect failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result DetectResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal detect response: %w", err)
	}

	return &result, nil
}
