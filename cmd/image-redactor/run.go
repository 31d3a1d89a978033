package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	imageredactor "github.com/menta2k/image-redactor"
	"github.com/menta2k/image-redactor/pkg/pipeline"
	"github.com/menta2k/image-redactor/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Redact every image under a directory",
	Long: `Walks the directory recursively and blurs the selected regions of every
image that has not been redacted yet. Exits non-zero when any file failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	addBatchFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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

	report, err := redactor.Run(ctx)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Interrupted", zap.Int("processed", report.Total()))
		}
		return err
	}
	if report.HasFailures() {
		return fmt.Errorf("%d file(s) failed", report.Count(types.StatusFailed))
	}
	return nil
}

func printReport(report *pipeline.Report) {
	for _, o := range report.Failed() {
		fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", o.Source, o.Err)
	}
	fmt.Printf("%d file(s): %s\n", report.Total(), report.Summary())
}
