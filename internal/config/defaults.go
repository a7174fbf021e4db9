package config

import (
	"gopkg.in/yaml.v3"
)

// Defaults holds the built-in sync parameters shipped with the binary.
// They back every value the remote settings endpoint can override, so a
// broken or unreachable settings payload never leaves the engine
// without a usable configuration.
type Defaults struct {
	Sync struct {
		MinConfidenceThreshold int `yaml:"min_confidence_threshold"`
		CooldownWindowMs       int `yaml:"cooldown_window_ms"`
		SampleIntervalMs       int `yaml:"sample_interval_ms"`
		TelemetryIntervalMs    int `yaml:"telemetry_interval_ms"`
	} `yaml:"sync"`
	Capture struct {
		MaxFrameSize int `yaml:"max_frame_size"`
	} `yaml:"capture"`
}

// LoadDefaults parses the embedded defaults.yaml.
func LoadDefaults() Defaults {
	var d Defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// The file is embedded at build time; a parse failure is a build bug.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}
