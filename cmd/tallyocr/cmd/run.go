package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/tallyocr/internal/config"
	"github.com/MeKo-Tech/tallyocr/internal/metrics"
	"github.com/MeKo-Tech/tallyocr/internal/pipeline"
	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
	"github.com/MeKo-Tech/tallyocr/internal/source"
	"github.com/MeKo-Tech/tallyocr/internal/utils"
)

// newEngine creates the recognition engine; tests swap it for a fake.
var newEngine = recognizer.NewEngine

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run [file...]",
	Short: "Recognize PDFs and images with multi-pass consensus",
	Long: `Recognize scanned PDFs and page images. Every page runs through the full
pass set; the passes are merged by majority vote and corrected. Inputs are
concatenated into one document in argument order.

Examples:
  tallyocr run scan.pdf
  tallyocr run scan.pdf --pages 1-2 --format json
  tallyocr run page1.png page2.png --output result.txt`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runDocument,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("dpi", pipeline.DefaultDPI, "resolution hint passed to the recognition engine")
	runCmd.Flags().String("pages", "", "PDF page range to process (e.g., '1-5', '1,3,5')")
	runCmd.Flags().String("password", "", "password for encrypted PDFs")
	runCmd.Flags().Int("workers", 0, "pass workers shared by all pages (0=NumCPU)")
	runCmd.Flags().Int("max-pages", pipeline.DefaultMaxPages, "pages processed concurrently")
	runCmd.Flags().Duration("timeout", recognizer.DefaultTimeout, "timeout per recognition call")
	runCmd.Flags().String("engine", recognizer.EngineExec, "recognition engine (exec, gosseract)")
	runCmd.Flags().String("tables", "", "correction tables YAML file (default: built-in tables)")
	runCmd.Flags().Bool("no-canonical", false, "disable canonical casing of known problem words during voting")
	runCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	runCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	runCmd.Flags().Bool("include-passes", false, "include raw pass texts in JSON output")
	runCmd.Flags().Bool("progress", false, "print a progress bar to stderr")
}

// runConfig holds everything one run needs.
type runConfig struct {
	central       config.Config
	format        string
	outputFile    string
	includePasses bool
	progress      bool
}

func (c *runConfig) sourceOptions(logger *slog.Logger) source.Options {
	return source.Options{
		Pages:       c.central.Raster.Pages,
		Password:    c.central.Raster.Password,
		Constraints: utils.DefaultImageConstraints(),
		Logger:      logger,
	}
}

// configToRunConfig maps centralized configuration to runConfig. Flags
// override config values only when set on the command line.
func configToRunConfig(centralCfg *config.Config, cmd *cobra.Command) (*runConfig, error) {
	cfg := &runConfig{central: *centralCfg}
	c := &cfg.central

	setStringWithFlag := func(flagName string, target *string) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetString(flagName)
		}
	}
	setIntWithFlag := func(flagName string, target *int) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetInt(flagName)
		}
	}
	setBoolWithFlag := func(flagName string, target *bool) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetBool(flagName)
		}
	}

	setIntWithFlag("dpi", &c.Raster.DPI)
	setStringWithFlag("pages", &c.Raster.Pages)
	setStringWithFlag("password", &c.Raster.Password)
	setIntWithFlag("workers", &c.Parallel.MaxWorkers)
	setIntWithFlag("max-pages", &c.Parallel.MaxPages)
	setStringWithFlag("engine", &c.Engine.Kind)
	setStringWithFlag("tables", &c.Correction.TablesFile)
	setStringWithFlag("format", &c.Output.Format)
	setStringWithFlag("output", &c.Output.File)
	setBoolWithFlag("include-passes", &c.Output.IncludePasses)
	if cmd.Flags().Changed("timeout") {
		c.Engine.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if noCanonical, _ := cmd.Flags().GetBool("no-canonical"); noCanonical {
		c.Correction.CanonicalWords = false
	}
	cfg.progress, _ = cmd.Flags().GetBool("progress")

	if err := c.Validate(); err != nil {
		return nil, err
	}
	cfg.format = c.Output.Format
	cfg.outputFile = c.Output.File
	cfg.includePasses = c.Output.IncludePasses
	return cfg, nil
}

// buildProcessor wires engine, tables and progress into a pipeline.Processor.
func buildProcessor(cfg *runConfig, progressOut io.Writer, logger *slog.Logger) (*pipeline.Processor, func() error, error) {
	pcfg, err := cfg.central.ToPipelineConfig()
	if err != nil {
		return nil, nil, err
	}

	engine, closeEngine, err := newEngine(cfg.central.ToEngineConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create recognition engine: %w", err)
	}

	progress := pipeline.NewMultiProgressCallback(pipeline.NewLogProgressCallback(logger, slog.LevelDebug))
	if cfg.progress {
		progress.Add(pipeline.NewConsoleProgressCallback(progressOut, "Pages: ").WithETA(true))
	}

	proc, err := pipeline.NewBuilder().
		WithEngine(engine).
		WithPasses(pcfg.Passes).
		WithDPI(pcfg.DPI).
		WithTimeout(pcfg.Timeout).
		WithMaxWorkers(pcfg.MaxWorkers).
		WithMaxPages(pcfg.MaxPages).
		WithTables(pcfg.Tables).
		WithCanonicalWords(cfg.central.Correction.CanonicalWords).
		WithProgressCallback(progress).
		WithLogger(logger).
		Build()
	if err != nil {
		_ = closeEngine()
		return nil, nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return proc, closeEngine, nil
}

// runDocument handles the main processing logic.
func runDocument(cmd *cobra.Command, args []string) error {
	cfg, err := configToRunConfig(GetConfig(), cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages, err := source.Load(ctx, args, cfg.sourceOptions(logger))
	if err != nil {
		return err
	}

	proc, closeEngine, err := buildProcessor(cfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = proc.Close()
		_ = closeEngine()
	}()
	logger.Debug("pipeline ready", "info", proc.Info())

	start := time.Now()
	doc, err := proc.ProcessDocument(ctx, pages)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}
	logger.Info("run finished", "run_id", doc.RunID, "pages", len(doc.Pages), "elapsed", time.Since(start).Round(time.Millisecond))

	if err := metrics.WriteTextfile(cfg.central.Metrics.Textfile); err != nil {
		logger.Warn("metrics export failed", "error", err)
	}
	return writeDocument(cmd.OutOrStdout(), cfg, doc)
}

func writeDocument(stdout io.Writer, cfg *runConfig, doc *pipeline.DocumentResult) error {
	var (
		out string
		err error
	)
	switch cfg.format {
	case "json":
		out, err = pipeline.ToJSONDocument(doc, cfg.includePasses)
	default:
		out, err = pipeline.ToPlainTextDocument(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return writeOutput(stdout, cfg.outputFile, out)
}

// writeOutput writes to file when set, otherwise to stdout.
func writeOutput(stdout io.Writer, file, content string) error {
	if file == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
