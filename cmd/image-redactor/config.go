package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-redactor/internal/config"
	"github.com/menta2k/image-redactor/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or check configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long: `Writes the default configuration as YAML (or JSON for a .json path).
Without a path the file goes to ~/.config/image-redactor/config.yaml, which
is searched automatically after ./config.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func configPathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.GetConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPathArg(args)
	if utils.FileExists(path) && !mustGetBool(cmd, "force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPathArg(args)
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%s, %d worker(s), marker %q)\n",
		path, cfg.Input.Dir, cfg.Batch.Workers, cfg.Output.Marker)
	return nil
}
