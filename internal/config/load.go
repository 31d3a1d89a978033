package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. REDACTOR_BATCH_WORKERS
const EnvPrefix = "REDACTOR"

// NewViper returns a viper instance preloaded with the defaults and the
// environment override rules.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Dir(GetConfigPath()))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file, applies environment variables and
// any flags bound to v, and validates the result.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("input.dir", c.Input.Dir)
	v.SetDefault("input.extensions", c.Input.Extensions)

	v.SetDefault("redaction.names", c.Redaction.Names)
	v.SetDefault("redaction.types", c.Redaction.Types)
	v.SetDefault("redaction.blur_radius", c.Redaction.BlurRadius)

	v.SetDefault("output.marker", c.Output.Marker)
	v.SetDefault("output.max_dimension", c.Output.MaxDimension)
	v.SetDefault("output.text", c.Output.Text)
	v.SetDefault("output.jpeg_quality", c.Output.JPEGQuality)
	v.SetDefault("output.webp_quality", c.Output.WebPQuality)
	v.SetDefault("output.lossless", c.Output.Lossless)
	v.SetDefault("output.font_size", c.Output.FontSize)
	v.SetDefault("output.text_margin", c.Output.TextMargin)
	v.SetDefault("output.auto_orient", c.Output.AutoOrient)
	v.SetDefault("output.debug_mask_dir", c.Output.DebugMaskDir)
	v.SetDefault("output.report", c.Output.Report)

	v.SetDefault("provenance.orientation", c.Provenance.Orientation)
	v.SetDefault("provenance.gps", c.Provenance.GPS)
	v.SetDefault("provenance.date", c.Provenance.Date)

	v.SetDefault("exiftool.binary", c.Exiftool.Binary)
	v.SetDefault("exiftool.stay_open", c.Exiftool.StayOpen)
	v.SetDefault("exiftool.retries", c.Exiftool.Retries)
	v.SetDefault("exiftool.retry_delay", c.Exiftool.RetryDelay)

	v.SetDefault("batch.workers", c.Batch.Workers)
	v.SetDefault("batch.reprocess", c.Batch.Reprocess)
	v.SetDefault("batch.delete_original", c.Batch.DeleteOriginal)
	v.SetDefault("batch.dry_run", c.Batch.DryRun)
	v.SetDefault("batch.progress", c.Batch.Progress)
	v.SetDefault("batch.watch_debounce", c.Batch.WatchDebounce)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.file", c.Logging.File)
}
