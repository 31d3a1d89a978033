package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/menta2k/image-redactor/internal/config"
	"github.com/menta2k/image-redactor/internal/logger"
)

var (
	configFile string
	v          = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "image-redactor",
	Short: "Blur tagged regions such as faces in photo collections",
	Long: `Image Redactor reads region tags (faces, pets, ...) from image metadata
or XMP sidecars with exiftool, blurs the selected regions and writes the
result next to the original under a marked name. Orientation, GPS and
capture dates are copied to the output. Files that were already redacted
are skipped, so the same tree can be processed again safely.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ./config.yaml or ~/.config/image-redactor/config.yaml)")
	flags.StringSlice("ext", nil, "image extensions to process (default .jpg,.jpeg,.png)")
	flags.StringSlice("names", nil, "only blur regions with these names")
	flags.StringSlice("types", nil, "only blur regions with these types (default Face)")
	flags.Float64("blur-radius", 0, "blur strength (default 200)")
	flags.String("marker", "", "suffix marking redacted files (default _blurred)")
	flags.Int("max-dimension", 0, "resize so the longer side is at most this many pixels")
	flags.String("text", "", "text drawn in the bottom left corner of each output")
	flags.String("exiftool", "", "exiftool binary")
	flags.Bool("stay-open", false, "keep one exiftool process running for region reads")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")

	bindFlags(rootCmd, map[string]string{
		"input.extensions":      "ext",
		"redaction.names":       "names",
		"redaction.types":       "types",
		"redaction.blur_radius": "blur-radius",
		"output.marker":         "marker",
		"output.max_dimension":  "max-dimension",
		"output.text":           "text",
		"exiftool.binary":       "exiftool",
		"exiftool.stay_open":    "stay-open",
		"logging.level":         "log-level",
		"logging.format":        "log-format",
	})
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig builds the configuration from file, environment and flags.
// A positional directory argument overrides input.dir.
func loadConfig(args []string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, nil, err
	}

	if len(args) > 0 {
		cfg.Input.Dir = args[0]
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

// bindFlags binds config keys to flags of cmd. Persistent and local flags
// are both looked up.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			flag = cmd.Flags().Lookup(name)
		}
		if flag == nil {
			panic(fmt.Sprintf("flag error for --%s: not defined", name))
		}
		if err := v.BindPFlag(key, flag); err != nil {
			panic(fmt.Sprintf("flag error for --%s: %v", name, err))
		}
	}
}
