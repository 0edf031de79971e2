// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Assets  AssetsConfig  `yaml:"assets"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds window and surface settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
	MSAA   int    `yaml:"msaa"`
}

// AssetsConfig holds asset file locations.
type AssetsConfig struct {
	// Root is the directory holding the viewer's GLB assets. Sign action
	// files live under <root>/actions.
	Root string `yaml:"root"`

	// Character is the base avatar file, relative to Root.
	Character string `yaml:"character"`
}

// ViewerConfig holds presentation settings.
type ViewerConfig struct {
	// Background is the clear color as three [0, 1] components.
	Background [3]float32 `yaml:"background"`

	// PlayingTimer is how long a sign is considered playing after
	// selection, used to block re-entrant selections.
	PlayingTimer time.Duration `yaml:"playing_timer"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Sign Avatar",
			Width:  1280,
			Height: 720,
			VSync:  true,
			MSAA:   4,
		},
		Assets: AssetsConfig{
			Root:      "assets/models",
			Character: "avatar.glb",
		},
		Viewer: ViewerConfig{
			Background: [3]float32{0.12, 0.12, 0.15},
			PlayingTimer: 4 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
