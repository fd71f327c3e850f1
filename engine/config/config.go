// Package config loads the viewer's JSON configuration. Files only need the fields they change: they are decoded
// over Default(), so everything missing keeps its default.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Present mode names accepted in the config file.
const (
	PresentModeVSync     = "vsync"
	PresentModeUncapped  = "uncapped"
	StratifierGrid       = "grid"
	defaultRandomSeeds   = 1000
	defaultSamplerDegree = 4
)

var (
	presentModes = []string{PresentModeVSync, PresentModeUncapped}
	stratifiers  = []string{StratifierGrid}
	logLevels    = []string{"debug", "info", "warn", "error"}
)

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type PixelSampler struct {
	Stratifier string `json:"stratifier"`
	Degree     int    `json:"degree"`
}

type Window struct {
	Title string `json:"title"`
}

type Log struct {
	Development bool   `json:"development"`
	Level       string `json:"level"`
}

// Config is the complete viewer configuration.
type Config struct {
	// Resolution is the tracing resolution. The viewer opens its window at this size, and resizing the window
	// retraces at the new size.
	Resolution   Resolution   `json:"resolution"`
	PixelSampler PixelSampler `json:"pixel_sampler"`
	RandomSeeds  int          `json:"random_seeds"`
	// StrictShaders turns on placeholder checking and WGSL validation of every specialized shader.
	StrictShaders bool `json:"strict_shaders"`
	// MaxPasses stops accumulation once reached; 0 accumulates forever.
	MaxPasses   int    `json:"max_passes"`
	Window      Window `json:"window"`
	PresentMode string `json:"present_mode"`
	// FallbackAdapter asks WebGPU for its CPU fallback adapter.
	FallbackAdapter bool `json:"fallback_adapter"`
	Log             Log  `json:"log"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Resolution:   Resolution{Width: 800, Height: 600},
		PixelSampler: PixelSampler{Stratifier: StratifierGrid, Degree: defaultSamplerDegree},
		RandomSeeds:  defaultRandomSeeds,
		Window:       Window{Title: "oxy-trace"},
		PresentMode:  PresentModeVSync,
		Log:          Log{Level: "info"},
	}
}

// Load reads and validates a config file.
//
// Parameters:
//   - path: the JSON file to read
//
// Returns:
//   - Config: the defaults overlaid with the file's fields
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a config from r. Unknown fields are rejected.
//
// Parameters:
//   - r: the JSON source
//
// Returns:
//   - Config: the defaults overlaid with the decoded fields
//   - error: error if decoding or validation fails
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field for a usable value.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig naming the first bad field, or nil
func (c Config) Validate() error {
	switch {
	case c.Resolution.Width <= 0 || c.Resolution.Height <= 0:
		return fmt.Errorf("%w: resolution %dx%d must be positive", ErrInvalidConfig, c.Resolution.Width, c.Resolution.Height)
	case !slices.Contains(stratifiers, c.PixelSampler.Stratifier):
		return fmt.Errorf("%w: unknown pixel sampler stratifier %q", ErrInvalidConfig, c.PixelSampler.Stratifier)
	case c.PixelSampler.Degree < 1:
		return fmt.Errorf("%w: pixel sampler degree %d must be at least 1", ErrInvalidConfig, c.PixelSampler.Degree)
	case c.RandomSeeds < 1:
		return fmt.Errorf("%w: random_seeds %d must be at least 1", ErrInvalidConfig, c.RandomSeeds)
	case c.MaxPasses < 0:
		return fmt.Errorf("%w: max_passes %d must not be negative", ErrInvalidConfig, c.MaxPasses)
	case !slices.Contains(presentModes, c.PresentMode):
		return fmt.Errorf("%w: unknown present mode %q", ErrInvalidConfig, c.PresentMode)
	case c.Log.Level != "" && !slices.Contains(logLevels, c.Log.Level):
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
