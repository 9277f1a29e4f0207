package domain

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config controls the extraction pipeline.
type Config struct {
	// ScreenshotDPI is the render scale for full-page screenshots.
	ScreenshotDPI float64 `json:"screenshot_dpi" yaml:"screenshot_dpi"`

	// ScreenshotFormat is the screenshot encoding: png, jpg or jpeg.
	ScreenshotFormat string `json:"screenshot_format" yaml:"screenshot_format"`

	// ImageFormat is the embedded-image encoding: png, jpg or jpeg.
	ImageFormat string `json:"image_format" yaml:"image_format"`

	// MaxImageSize caps stored image bytes; images above the cap are
	// dropped from the run. Zero means unlimited.
	MaxImageSize int `json:"max_image_size" yaml:"max_image_size"`

	// IncludeLayoutHints adds bounding-box position lines to the
	// serialized page form.
	IncludeLayoutHints bool `json:"include_layout_hints" yaml:"include_layout_hints"`

	// LogLevel is one of DEBUG, INFO, WARNING, ERROR, CRITICAL.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LogProgress emits a log line per processed page.
	LogProgress bool `json:"log_progress" yaml:"log_progress"`
}

// DefaultConfig returns the configuration used when callers pass none.
func DefaultConfig() Config {
	return Config{
		ScreenshotDPI:    2.0,
		ScreenshotFormat: "png",
		ImageFormat:      "png",
		LogLevel:         "INFO",
		LogProgress:      true,
	}
}

// Validate fails fast on the first invalid field.
func (c Config) Validate() error {
	if c.ScreenshotDPI <= 0 {
		return ConfigError("screenshot_dpi must be greater than 0", nil)
	}
	if !validImageFormat(c.ScreenshotFormat) {
		return ConfigError(fmt.Sprintf("screenshot_format must be 'png', 'jpg' or 'jpeg', got %q", c.ScreenshotFormat), nil)
	}
	if !validImageFormat(c.ImageFormat) {
		return ConfigError(fmt.Sprintf("image_format must be 'png', 'jpg' or 'jpeg', got %q", c.ImageFormat), nil)
	}
	if c.MaxImageSize < 0 {
		return ConfigError("max_image_size must be greater than 0 or unset", nil)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return ConfigError("log_level must be one of DEBUG, INFO, WARNING, ERROR, CRITICAL", err)
	}
	return nil
}

func validImageFormat(format string) bool {
	switch format {
	case "png", "jpg", "jpeg":
		return true
	}
	return false
}

// LoadConfigFile reads a YAML configuration file on top of the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, ConfigError(fmt.Sprintf("cannot read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, ConfigError(fmt.Sprintf("cannot parse config file %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigEnv builds a configuration from PDF2MD_* environment
// variables on top of the defaults. A .env file is honored when present.
func LoadConfigEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv("PDF2MD_SCREENSHOT_DPI"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, ConfigError("PDF2MD_SCREENSHOT_DPI must be a number", err)
		}
		cfg.ScreenshotDPI = dpi
	}
	if v := os.Getenv("PDF2MD_SCREENSHOT_FORMAT"); v != "" {
		cfg.ScreenshotFormat = v
	}
	if v := os.Getenv("PDF2MD_IMAGE_FORMAT"); v != "" {
		cfg.ImageFormat = v
	}
	if v := os.Getenv("PDF2MD_MAX_IMAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return cfg, ConfigError("PDF2MD_MAX_IMAGE_SIZE must be an integer", err)
		}
		cfg.MaxImageSize = size
	}
	if v := os.Getenv("PDF2MD_INCLUDE_LAYOUT_HINTS"); v != "" {
		hints, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, ConfigError("PDF2MD_INCLUDE_LAYOUT_HINTS must be a boolean", err)
		}
		cfg.IncludeLayoutHints = hints
	}
	if v := os.Getenv("PDF2MD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
