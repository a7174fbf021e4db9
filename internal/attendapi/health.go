package attendapi

import (
	"context"
	"fmt"
)

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	health, err := doGetJSON[HealthResponse](ctx, c, "health")
	if err != nil {
		return nil, fmt.Errorf("backend health check failed: %w", err)
	}
	return health, nil
}
