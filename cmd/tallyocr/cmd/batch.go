package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tallyocr/internal/batch"
	"github.com/MeKo-Tech/tallyocr/internal/metrics"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [file|dir...]",
	Short: "Recognize many documents, one output per file",
	Long: `Process every PDF and image found in the given files and directories as a
separate document. Results are written to the output directory, one file
per input.

Examples:
  tallyocr batch scans/ --output-dir results/
  tallyocr batch scans/ --recursive --exclude 'draft_*' --format json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Bool("recursive", false, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "only process files matching these patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip files matching these patterns")
	batchCmd.Flags().String("output-dir", "", "directory for per-file results (required)")
	batchCmd.Flags().Bool("continue-on-error", false, "keep going when a file fails")
	batchCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	batchCmd.Flags().Bool("include-passes", false, "include raw pass texts in JSON output")
	batchCmd.Flags().String("pages", "", "PDF page range applied to every PDF")
	batchCmd.Flags().String("engine", "", "recognition engine (exec, gosseract)")
	batchCmd.Flags().Int("workers", 0, "pass workers shared by all pages (0=NumCPU)")
	batchCmd.Flags().String("tables", "", "correction tables YAML file (default: built-in tables)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("output-dir")
	if outDir == "" {
		return errors.New("--output-dir is required")
	}

	cfg, err := configToRunConfig(GetConfig(), cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, closeEngine, err := buildProcessor(cfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = proc.Close()
		_ = closeEngine()
	}()

	recursive, _ := cmd.Flags().GetBool("recursive")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	continueOnError, _ := cmd.Flags().GetBool("continue-on-error")

	res, err := batch.Run(ctx, proc, args, batch.Config{
		Recursive:       recursive,
		IncludePatterns: include,
		ExcludePatterns: exclude,
		OutputDir:       outDir,
		Format:          cfg.format,
		IncludePasses:   cfg.includePasses,
		ContinueOnError: continueOnError,
		Source:          cfg.sourceOptions(logger),
	}, logger)
	if err != nil {
		return err
	}

	if err := metrics.WriteTextfile(cfg.central.Metrics.Textfile); err != nil {
		logger.Warn("metrics export failed", "error", err)
	}
	res.WriteSummary(cmd.OutOrStdout())
	if res.Failed() > 0 {
		return fmt.Errorf("%d of %d files failed", res.Failed(), len(res.Outcomes))
	}
	return nil
}
