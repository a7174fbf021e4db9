package attendapi

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListEmbeddings fetches all stored face embeddings keyed by student id.
// The backend stores vectors as JSON strings; they are decoded here so
// callers only see numeric vectors. Entries that fail to decode are
// skipped, matching the backend's own tolerance for corrupt rows.
func (c *Client) ListEmbeddings(ctx context.Context) (map[string][]float32, error) {
	raw, err := doGetJSON[map[string]string](ctx, c, "embeddings")
	if err != nil {
		return nil, fmt.Errorf("could not list embeddings: %w", err)
	}

	vectors := make(map[string][]float32, len(*raw))
	for studentID, encoded := range *raw {
		var vec []float32
		if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
			continue
		}
		vectors[studentID] = vec
	}
	return vectors, nil
}

// UpsertEmbedding stores a face embedding for a student.
func (c *Client) UpsertEmbedding(ctx context.Context, studentID string, vector []float32) error {
	payload := map[string]any{
		"studentId": studentID,
		"vector":    vector,
	}
	if _, err := doPutJSON[DeleteResponse](ctx, c, "embeddings", payload); err != nil {
		return fmt.Errorf("could not upsert embedding for %s: %w", studentID, err)
	}
	return nil
}
