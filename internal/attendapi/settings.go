package attendapi

import (
	"context"
	"fmt"
)

// GetSettings fetches the persisted dashboard settings.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	settings, err := doGetJSON[Settings](ctx, c, "settings")
	if err != nil {
		return nil, fmt.Errorf("could not fetch settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings replaces the persisted settings and returns the saved
// values.
func (c *Client) UpdateSettings(ctx context.Context, settings Settings) (*Settings, error) {
	saved, err := doPutJSON[Settings](ctx, c, "settings", settings)
	if err != nil {
		return nil, fmt.Errorf("could not update settings: %w", err)
	}
	return saved, nil
}
