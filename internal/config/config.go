package config

import (
	_ "embed"
	"os"
	"strconv"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	API      APIConfig
	Capture  CaptureConfig
	Archive  ArchiveConfig
	Defaults Defaults
}

type APIConfig struct {
	URL string // base URL of the attendance backend (e.g., http://localhost:5000/api)
}

type CaptureConfig struct {
	SnapshotURL  string // HTTP still/snapshot URL of the camera (e.g., http://cam.local/snapshot.jpg)
	FramePath    string // path to a static frame on disk, used instead of SnapshotURL when set
	MaxFrameSize int    // frames larger than this (either dimension) are downscaled before upload
}

type ArchiveConfig struct {
	Driver       string // "postgres" or "mysql"; empty disables the reporting mirror
	URL          string // DSN for the selected driver
	MaxOpenConns int    // maximum open connections (default 10)
	MaxIdleConns int    // maximum idle connections (default 2)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	defaults := LoadDefaults()

	return &Config{
		API: APIConfig{
			URL: os.Getenv("ATTENDANCE_API_URL"),
		},
		Capture: CaptureConfig{
			SnapshotURL:  os.Getenv("CAMERA_SNAPSHOT_URL"),
			FramePath:    os.Getenv("CAMERA_FRAME_PATH"),
			MaxFrameSize: envInt("CAMERA_MAX_FRAME_SIZE", defaults.Capture.MaxFrameSize),
		},
		Archive: ArchiveConfig{
			Driver:       os.Getenv("ARCHIVE_DRIVER"),
			URL:          os.Getenv("ARCHIVE_URL"),
			MaxOpenConns: envInt("ARCHIVE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("ARCHIVE_MAX_IDLE_CONNS", 2),
		},
		Defaults: defaults,
	}
}
