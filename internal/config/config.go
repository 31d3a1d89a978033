package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-redactor/internal/logger"
	"github.com/menta2k/image-redactor/pkg/processing"
	"github.com/menta2k/image-redactor/pkg/provenance"
	"github.com/menta2k/image-redactor/pkg/types"
)

// Config holds the application configuration. It is built once per run
// and passed by value; nothing reads it from package state.
type Config struct {
	Input      InputConfig      `json:"input" yaml:"input" mapstructure:"input"`
	Redaction  RedactionConfig  `json:"redaction" yaml:"redaction" mapstructure:"redaction"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Provenance provenance.Flags `json:"provenance" yaml:"provenance" mapstructure:"provenance"`
	Exiftool   ExiftoolConfig   `json:"exiftool" yaml:"exiftool" mapstructure:"exiftool"`
	Batch      BatchConfig      `json:"batch" yaml:"batch" mapstructure:"batch"`
	Logging    logger.Config    `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// InputConfig selects the files to process
type InputConfig struct {
	Dir        string   `json:"dir" yaml:"dir" mapstructure:"dir"`
	Extensions []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
}

// RedactionConfig holds the region filters and blur strength
type RedactionConfig struct {
	Names      []string `json:"names" yaml:"names" mapstructure:"names"`
	Types      []string `json:"types" yaml:"types" mapstructure:"types"`
	BlurRadius float64  `json:"blur_radius" yaml:"blur_radius" mapstructure:"blur_radius"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	// Marker is appended to the stem of every output and identifies
	// already redacted files.
	Marker       string  `json:"marker" yaml:"marker" mapstructure:"marker"`
	MaxDimension int     `json:"max_dimension" yaml:"max_dimension" mapstructure:"max_dimension"`
	Text         string  `json:"text" yaml:"text" mapstructure:"text"`
	JPEGQuality  int     `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	WebPQuality  int     `json:"webp_quality" yaml:"webp_quality" mapstructure:"webp_quality"`
	Lossless     bool    `json:"lossless" yaml:"lossless" mapstructure:"lossless"`
	FontSize     float64 `json:"font_size" yaml:"font_size" mapstructure:"font_size"`
	TextMargin   int     `json:"text_margin" yaml:"text_margin" mapstructure:"text_margin"`
	AutoOrient   bool    `json:"auto_orient" yaml:"auto_orient" mapstructure:"auto_orient"`
	DebugMaskDir string  `json:"debug_mask_dir" yaml:"debug_mask_dir" mapstructure:"debug_mask_dir"`
	Report       string  `json:"report" yaml:"report" mapstructure:"report"`
}

// ExiftoolConfig configures the external metadata tool
type ExiftoolConfig struct {
	Binary     string        `json:"binary" yaml:"binary" mapstructure:"binary"`
	StayOpen   bool          `json:"stay_open" yaml:"stay_open" mapstructure:"stay_open"`
	Retries    int           `json:"retries" yaml:"retries" mapstructure:"retries"`
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
}

// BatchConfig controls how a directory tree is processed
type BatchConfig struct {
	Workers        int           `json:"workers" yaml:"workers" mapstructure:"workers"`
	Reprocess      bool          `json:"reprocess" yaml:"reprocess" mapstructure:"reprocess"`
	DeleteOriginal bool          `json:"delete_original" yaml:"delete_original" mapstructure:"delete_original"`
	DryRun         bool          `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`
	Progress       bool          `json:"progress" yaml:"progress" mapstructure:"progress"`
	WatchDebounce  time.Duration `json:"watch_debounce" yaml:"watch_debounce" mapstructure:"watch_debounce"`
}

// Default returns a configuration with default values
func Default() *Config {
	proc := processing.DefaultConfig()
	return &Config{
		Input: InputConfig{
			Dir:        ".",
			Extensions: []string{".jpg", ".jpeg", ".png"},
		},
		Redaction: RedactionConfig{
			Types:      []string{"Face"},
			BlurRadius: proc.BlurRadius,
		},
		Output: OutputConfig{
			Marker:      "_blurred",
			JPEGQuality: proc.JPEGQuality,
			WebPQuality: proc.WebPQuality,
			FontSize:    proc.FontSize,
			TextMargin:  proc.TextMargin,
		},
		Provenance: provenance.Flags{
			Orientation: true,
			GPS:         true,
			Date:        true,
		},
		Exiftool: ExiftoolConfig{
			Binary:     "exiftool",
			Retries:    1,
			RetryDelay: 500 * time.Millisecond,
		},
		Batch: BatchConfig{
			Workers:       1,
			WatchDebounce: 2 * time.Second,
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as YAML or JSON depending on the extension
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return fmt.Errorf("input.dir cannot be empty")
	}

	if len(c.Input.Extensions) == 0 {
		return fmt.Errorf("input.extensions cannot be empty")
	}

	if strings.TrimSpace(c.Output.Marker) == "" {
		return fmt.Errorf("output.marker cannot be empty")
	}

	if strings.ContainsAny(c.Output.Marker, `/\`) {
		return fmt.Errorf("output.marker cannot contain path separators")
	}

	if c.Redaction.BlurRadius <= 0 || c.Redaction.BlurRadius > 1000 {
		return fmt.Errorf("redaction.blur_radius must be between 0 and 1000")
	}

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100")
	}

	if c.Output.WebPQuality < 1 || c.Output.WebPQuality > 100 {
		return fmt.Errorf("output.webp_quality must be between 1 and 100")
	}

	if c.Output.Text != "" && c.Output.FontSize <= 0 {
		return fmt.Errorf("output.font_size must be positive")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}

	if c.Exiftool.Retries < 0 {
		return fmt.Errorf("exiftool.retries cannot be negative")
	}

	return nil
}

// Spec returns the region filter of this configuration
func (c *Config) Spec() types.RedactionSpec {
	return types.RedactionSpec{
		Types: append([]string(nil), c.Redaction.Types...),
		Names: append([]string(nil), c.Redaction.Names...),
	}
}

// Processing returns the settings of the redaction chain
func (c *Config) Processing() processing.Config {
	return processing.Config{
		BlurRadius:   c.Redaction.BlurRadius,
		JPEGQuality:  c.Output.JPEGQuality,
		WebPQuality:  c.Output.WebPQuality,
		Lossless:     c.Output.Lossless,
		AutoOrient:   c.Output.AutoOrient,
		FontSize:     c.Output.FontSize,
		TextMargin:   c.Output.TextMargin,
		DebugMaskDir: c.Output.DebugMaskDir,
	}
}

// PostProcessing returns the optional resize and overlay steps
func (c *Config) PostProcessing() processing.Options {
	return processing.Options{
		MaxDimension: c.Output.MaxDimension,
		Text:         c.Output.Text,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "image-redactor", "config.yaml")
}
