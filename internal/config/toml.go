// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Display  DisplayConfig  `toml:"display"`
	Timing   TimingConfig   `toml:"timing"`
	Trials   TrialsConfig   `toml:"trials"`
	Keys     KeysConfig     `toml:"keys"`
	Feedback FeedbackConfig `toml:"feedback"`
	Paths    PathsConfig    `toml:"paths"`
}

// DisplayConfig maps display settings.
type DisplayConfig struct {
	FrameRate *float64 `toml:"frame-rate"`
}

// TimingConfig maps durations in milliseconds.
type TimingConfig struct {
	FixationMs    *int `toml:"fixation-ms"`
	StimulusMs    *int `toml:"stimulus-ms"`
	ResponseMs    *int `toml:"response-ms"`
	FeedbackMs    *int `toml:"feedback-ms"`
	JitterMinMs   *int `toml:"jitter-min-ms"`
	JitterMaxMs   *int `toml:"jitter-max-ms"`
	InfoMaxWaitMs *int `toml:"info-max-wait-ms"`
}

// TrialsConfig maps trial counts.
type TrialsConfig struct {
	Training        *int `toml:"training"`
	PerBlock        *int `toml:"per-block"`
	Blocks          *int `toml:"blocks"`
	MaxCongruentRun *int `toml:"max-congruent-run"`
}

// KeysConfig maps key names.
type KeysConfig struct {
	Left     *string `toml:"left"`
	Right    *string `toml:"right"`
	Abort    *string `toml:"abort"`
	QuitInfo *string `toml:"quit-info"`
}

// FeedbackConfig maps feedback messages.
type FeedbackConfig struct {
	Correct   *string `toml:"correct"`
	Incorrect *string `toml:"incorrect"`
	InBlocks  *bool   `toml:"in-blocks"`
}

// PathsConfig maps output and message locations.
type PathsConfig struct {
	ResultsDir  *string `toml:"results-dir"`
	MessagesDir *string `toml:"messages-dir"`
}

// LoadConfig reads a TOML config, or a legacy YAML config when the path ends
// in .yaml/.yml. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadLegacyYAML(path)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
