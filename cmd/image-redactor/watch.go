package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	imageredactor "github.com/menta2k/image-redactor"
	"github.com/menta2k/image-redactor/pkg/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Redact new images as they appear",
	Long: `Processes the directory once, then watches it and processes it again
shortly after images or sidecars are added or changed. Stops on Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addBatchFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", 0, "quiet period before a rerun (default 2s)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, map[string]string{"batch.watch_debounce": "debounce"})

	cfg, log, err := loadConfig(args)
	if err != nil {
		return err
	}
	defer log.Sync()

	redactor, err := imageredactor.New(cfg, log)
	if err != nil {
		return err
	}
	defer redactor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Watching", zap.String("dir", cfg.Input.Dir), zap.Duration("debounce", cfg.Batch.WatchDebounce))
	return redactor.Watch(ctx, func(report *pipeline.Report) {
		printReport(report)
	})
}
