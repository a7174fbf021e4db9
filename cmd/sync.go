package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/capture"
	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/engine"
)

// buildFrameSource picks the capture source from the configuration. A
// frame file takes precedence over a snapshot URL so a dumped frame can
// be used for local testing without touching the camera settings.
func buildFrameSource(cfg *config.Config) (engine.FrameSource, error) {
	if cfg.Capture.FramePath != "" {
		return capture.NewFileSource(cfg.Capture.FramePath, cfg.Capture.MaxFrameSize), nil
	}
	if cfg.Capture.SnapshotURL != "" {
		source, err := capture.NewSnapshotSource(cfg.Capture.SnapshotURL, cfg.Capture.MaxFrameSize)
		if err != nil {
			return nil, fmt.Errorf("invalid camera configuration: %w", err)
		}
		return source, nil
	}
	return nil, errors.New("CAMERA_SNAPSHOT_URL or CAMERA_FRAME_PATH environment variable is required")
}

// buildSyncConfig derives the engine configuration from remote settings,
// falling back to the embedded defaults when the settings endpoint is
// unreachable or malformed.
func buildSyncConfig(ctx context.Context, cfg *config.Config) (engine.SyncConfig, error) {
	if cfg.API.URL == "" {
		return engine.SyncConfig{}, errors.New("ATTENDANCE_API_URL environment variable is required")
	}

	client, err := attendapi.NewClient(cfg.API.URL)
	if err != nil {
		return engine.SyncConfig{}, fmt.Errorf("invalid backend URL: %w", err)
	}

	settings, err := client.GetSettings(ctx)
	if err != nil {
		fmt.Printf("Warning: could not fetch remote settings, using defaults: %v\n", err)
		settings = nil
	}

	syncCfg := engine.SyncConfigFromSettings(
		cfg.API.URL,
		settings,
		cfg.Defaults.Sync.MinConfidenceThreshold,
		cfg.Defaults.Sync.CooldownWindowMs,
		cfg.Defaults.Sync.SampleIntervalMs,
	)
	syncCfg.TelemetryInterval = time.Duration(cfg.Defaults.Sync.TelemetryIntervalMs) * time.Millisecond
	return syncCfg, nil
}

// newClient creates a backend client from the environment, for the
// one-shot CLI commands.
func newClient(cfg *config.Config) (*attendapi.Client, error) {
	if cfg.API.URL == "" {
		return nil, errors.New("ATTENDANCE_API_URL environment variable is required")
	}
	client, err := attendapi.NewClient(cfg.API.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	return client, nil
}
