// Package config loads server and CLI settings from defaults, an optional
// YAML file, and OTSU_SEGMENT_* environment variables, in that order of
// precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/otsu-segment-mcp/internal/imaging"
	"github.com/ironsheep/otsu-segment-mcp/internal/segment"
)

// Environment variable names.
const (
	EnvConfigFile        = "OTSU_SEGMENT_CONFIG"
	EnvLogLevel          = "OTSU_SEGMENT_LOG_LEVEL"
	EnvLogFormat         = "OTSU_SEGMENT_LOG_FORMAT"
	EnvMaxInputBytes     = "OTSU_SEGMENT_MAX_INPUT_BYTES"
	EnvMaxPixels         = "OTSU_SEGMENT_MAX_PIXELS"
	EnvPolarity          = "OTSU_SEGMENT_POLARITY"
	EnvGrayscale         = "OTSU_SEGMENT_GRAYSCALE"
	EnvBlurRadius        = "OTSU_SEGMENT_BLUR_RADIUS"
	EnvFallbackThreshold = "OTSU_SEGMENT_FALLBACK_THRESHOLD"
)

// Config holds all tunable settings.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" (human readable) or "json".
	LogFormat string `yaml:"log_format"`

	// MaxInputBytes bounds the size of encoded input images.
	MaxInputBytes int64 `yaml:"max_input_bytes"`

	// MaxPixels bounds the declared width*height of decoded images. Zero
	// selects imaging.DefaultMaxPixels.
	MaxPixels int64 `yaml:"max_pixels"`

	// Segmentation holds the defaults applied when a request does not
	// override them.
	Segmentation Segmentation `yaml:"segmentation"`
}

// Segmentation holds default segmentation options.
type Segmentation struct {
	Polarity   string  `yaml:"polarity"`
	Grayscale  string  `yaml:"grayscale"`
	BlurRadius float64 `yaml:"blur_radius"`

	// FallbackThreshold is used for single-color images. Nil means such
	// images fail instead.
	FallbackThreshold *int `yaml:"fallback_threshold"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "console",
		MaxInputBytes: imaging.DefaultMaxInputBytes,
		MaxPixels:     imaging.DefaultMaxPixels,
		Segmentation: Segmentation{
			Polarity:  segment.PolarityBrightWhite.String(),
			Grayscale: segment.ModeLuminance.String(),
		},
	}
}

// Load builds the configuration. path names a YAML file; when empty, the
// OTSU_SEGMENT_CONFIG variable is consulted, and when that is empty too no
// file is read. Environment overrides are applied last, then the result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.LogFormat = v
	}
	if v, ok := lookup(EnvPolarity); ok {
		c.Segmentation.Polarity = v
	}
	if v, ok := lookup(EnvGrayscale); ok {
		c.Segmentation.Grayscale = v
	}
	if v, ok := lookup(EnvMaxInputBytes); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxInputBytes, err)
		}
		c.MaxInputBytes = n
	}
	if v, ok := lookup(EnvMaxPixels); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxPixels, err)
		}
		c.MaxPixels = n
	}
	if v, ok := lookup(EnvBlurRadius); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBlurRadius, err)
		}
		c.Segmentation.BlurRadius = f
	}
	if v, ok := lookup(EnvFallbackThreshold); ok {
		if v == "" {
			c.Segmentation.FallbackThreshold = nil
		} else {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", EnvFallbackThreshold, err)
			}
			c.Segmentation.FallbackThreshold = &n
		}
	}
	return nil
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	var errs []error

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level: %s", c.LogLevel))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %s", c.LogFormat))
	}
	if c.MaxInputBytes < 0 {
		errs = append(errs, fmt.Errorf("max_input_bytes must be >= 0, got %d", c.MaxInputBytes))
	}
	if c.MaxPixels < 0 {
		errs = append(errs, fmt.Errorf("max_pixels must be >= 0, got %d", c.MaxPixels))
	}
	if _, err := c.Segmentation.Options(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Options converts the segmentation defaults into segment.Options.
func (s Segmentation) Options() (segment.Options, error) {
	var opts segment.Options

	polarity, err := segment.ParsePolarity(s.Polarity)
	if err != nil {
		return opts, err
	}
	mode, err := segment.ParseMode(s.Grayscale)
	if err != nil {
		return opts, err
	}
	if s.BlurRadius < 0 {
		return opts, fmt.Errorf("blur_radius must be >= 0, got %v", s.BlurRadius)
	}

	opts.Polarity = polarity
	opts.Grayscale = mode
	opts.BlurRadius = s.BlurRadius

	if s.FallbackThreshold != nil {
		t := *s.FallbackThreshold
		if t < 0 || t > 255 {
			return opts, fmt.Errorf("fallback_threshold must be in [0,255], got %d", t)
		}
		fallback := uint8(t)
		opts.Fallback = &fallback
	}

	return opts, nil
}
