package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/colortag/internal/cluster"
	"github.com/nao1215/colortag/internal/config"
	"github.com/nao1215/colortag/internal/database"
	"github.com/nao1215/colortag/internal/dataset"
	"github.com/nao1215/colortag/internal/fetch"
	"github.com/nao1215/colortag/internal/filter"
	"github.com/nao1215/colortag/internal/match"
	"github.com/nao1215/colortag/internal/model"
	"github.com/nao1215/colortag/internal/pipeline"
	"github.com/nao1215/colortag/internal/report"
	"github.com/nao1215/colortag/internal/taxonomy"
	"github.com/nao1215/colortag/internal/throttle"
	"github.com/spf13/cobra"
)

// errInterrupted is returned when a run stopped before its last row.
var errInterrupted = errors.New("run interrupted")

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <input>",
		Short: "Label every row of a product dataset with a color",
		Long: `Classify reads a CSV (or TSV) dataset with identifier, name and image_url
columns, downloads each image, removes the background, extracts the dominant
color and writes the matched taxonomy label to the color column.

Rows are processed one at a time. The output file is rewritten every
--checkpoint-every rows, so it always holds the rows finished so far. A row
whose image cannot be fetched or decoded is marked with "-" and the run
continues.

Examples:
  # Classify a dataset
  colortag classify products.csv -o products_labeled.csv

  # Continue an interrupted run, retrying rows that failed
  colortag classify products.csv -o products_labeled.csv --resume --retry-failed

  # Use flood-fill background removal and the mean of all clusters
  colortag classify products.csv -o out.csv --filter segmentation --strategy mean

  # Pace requests with a token bucket and write a Markdown summary
  colortag classify products.csv -o out.csv --throttle bucket --delay 500ms --burst 5 \
    --report markdown --report-file summary.md`,
		Args: cobra.ExactArgs(1),
		RunE: runClassifyCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", "", "Output dataset path (also the checkpoint)")
	cmd.Flags().IntP("checkpoint-every", "n", config.DefaultCheckpointEvery,
		"Rewrite the output after this many processed rows")
	cmd.Flags().BoolP("resume", "r", false, "Skip rows already present in the output file")
	cmd.Flags().Bool("retry-failed", false, "With --resume, reprocess rows marked as failed")
	cmd.Flags().Bool("keep-prior-color", false, "Keep an existing color column as color_old")
	cmd.Flags().Bool("bom", false, "Write a UTF-8 byte order mark for spreadsheet tools")
	cmd.Flags().Bool("diagnostics", false, "Add a dominant_rgb column with the raw dominant color")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each image download")
	cmd.Flags().Int("grid-size", config.DefaultGridSize, "Edge length images are resized to before clustering")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum image size in bytes")
	cmd.Flags().String("user-agent", fetch.DefaultUserAgent, "User-Agent header for image requests")
	cmd.Flags().String("referer", "", "Referer header for every request (default: derived from the image URL)")

	// Background removal flags
	cmd.Flags().String("filter", config.DefaultFilterMode, "Background removal: statistical or segmentation")
	cmd.Flags().Float64("min-value", filter.DefaultMinValue, "Drop pixels at or below this HSV value (0-100)")
	cmd.Flags().Uint8("white-cutoff", filter.DefaultWhiteCutoff, "Drop pixels with every channel above this value")
	cmd.Flags().Float64("tolerance", filter.DefaultTolerance, "Segmentation flood fill color distance")
	cmd.Flags().Float64("crop-ratio", filter.DefaultCropRatio, "Segmentation salient square edge relative to the shorter grid edge (1 keeps the whole grid)")

	// Clustering flags
	cmd.Flags().IntP("clusters", "k", cluster.DefaultK, "Number of k-means clusters")
	cmd.Flags().Uint64("seed", cluster.DefaultSeed, "Random seed for reproducible clustering")
	cmd.Flags().Int("n-init", cluster.DefaultNInit, "Number of k-means restarts")
	cmd.Flags().String("strategy", config.DefaultStrategy, "Dominant color strategy: largest or mean")
	cmd.Flags().String("taxonomy", "", "Custom taxonomy file (default: built-in taxonomy)")

	// Pacing flags
	cmd.Flags().String("throttle", config.DefaultThrottleMode, "Request pacing: fixed, bucket or none")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay, "Fixed delay, or token refill interval for the bucket")
	cmd.Flags().Int("burst", config.DefaultBurst, "Token bucket capacity")

	// Report and history flags
	cmd.Flags().StringP("report", "f", config.DefaultReportFormat, "Summary format: text, json or markdown")
	cmd.Flags().String("report-file", "", "Write the summary to a file instead of stdout")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")
	cmd.Flags().Bool("quiet", false, "Do not print a progress line per row")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .colortag in current or home directory)")

	return cmd
}

// runClassifyCmd executes the classify command.
func runClassifyCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFile)
	defer closeLog()
	slog.SetDefault(logger)

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}

	// Set up context with signal handling for graceful shutdown
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, finishing current row...")
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := cmd.OutOrStdout()
	if quiet {
		progress = io.Discard
	}
	return runClassify(ctx, cfg, logger, progress, cmd.OutOrStdout())
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.Input = args[0]
	}

	var err error
	if cfg.Output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.CheckpointEvery, err = flags.GetInt("checkpoint-every"); err != nil {
		return nil, err
	}
	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}
	if cfg.RetryFailed, err = flags.GetBool("retry-failed"); err != nil {
		return nil, err
	}
	if cfg.KeepPriorColor, err = flags.GetBool("keep-prior-color"); err != nil {
		return nil, err
	}
	if cfg.BOM, err = flags.GetBool("bom"); err != nil {
		return nil, err
	}
	if cfg.Diagnostics, err = flags.GetBool("diagnostics"); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.GridSize, err = flags.GetInt("grid-size"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Referer, err = flags.GetString("referer"); err != nil {
		return nil, err
	}

	if cfg.FilterMode, err = flags.GetString("filter"); err != nil {
		return nil, err
	}
	if cfg.MinValue, err = flags.GetFloat64("min-value"); err != nil {
		return nil, err
	}
	if cfg.WhiteCutoff, err = flags.GetUint8("white-cutoff"); err != nil {
		return nil, err
	}
	if cfg.Tolerance, err = flags.GetFloat64("tolerance"); err != nil {
		return nil, err
	}
	if cfg.CropRatio, err = flags.GetFloat64("crop-ratio"); err != nil {
		return nil, err
	}

	if cfg.K, err = flags.GetInt("clusters"); err != nil {
		return nil, err
	}
	if cfg.Seed, err = flags.GetUint64("seed"); err != nil {
		return nil, err
	}
	if cfg.NInit, err = flags.GetInt("n-init"); err != nil {
		return nil, err
	}
	if cfg.Strategy, err = flags.GetString("strategy"); err != nil {
		return nil, err
	}
	if cfg.TaxonomyPath, err = flags.GetString("taxonomy"); err != nil {
		return nil, err
	}

	if cfg.ThrottleMode, err = flags.GetString("throttle"); err != nil {
		return nil, err
	}
	if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Burst, err = flags.GetInt("burst"); err != nil {
		return nil, err
	}

	if cfg.ReportFormat, err = flags.GetString("report"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.NoHistory, err = flags.GetBool("no-history"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogFile = getLogFileFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile loads host settings and the taxonomy path from the config file.
// If the user explicitly specified a config file path, a missing file is an error.
// Otherwise a missing file is ignored.
func loadConfigFile(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath == "" {
		if explicitConfigPath {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	cfg.Hosts = file
	if cfg.TaxonomyPath == "" {
		cfg.TaxonomyPath = file.Taxonomy
	}
	return nil
}

// loadTaxonomy returns the taxonomy at path, or the built-in one when path is empty.
func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default(), nil
	}
	tax, err := taxonomy.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}
	return tax, nil
}

// newClassifier builds the fetch, filter, extract, match pipeline from cfg.
func newClassifier(cfg *config.Config, tax *taxonomy.Taxonomy, logger *slog.Logger) (*pipeline.Pipeline, error) {
	fetchOpts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithGridSize(cfg.GridSize),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHostOverrides(cfg.HostOverrides()),
		fetch.WithLogger(logger),
	}
	if cfg.Referer != "" {
		fetchOpts = append(fetchOpts, fetch.WithReferer(cfg.Referer))
	}

	flt, extractor, err := newStages(cfg, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewClassifier(fetch.New(fetchOpts...), flt, extractor, match.New(tax), logger), nil
}

// newStages builds the background filter and the extractor. The filter
// keeps at least as many pixels as the extractor asks clusters for.
func newStages(cfg *config.Config, logger *slog.Logger) (filter.Filter, *cluster.Extractor, error) {
	strategy, err := cluster.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, nil, err
	}
	extractor := cluster.New(
		cluster.WithK(cfg.K),
		cluster.WithSeed(cfg.Seed),
		cluster.WithNInit(cfg.NInit),
		cluster.WithStrategy(strategy),
	)

	flt, err := filter.New(filter.Mode(cfg.FilterMode),
		filter.WithMinValue(cfg.MinValue),
		filter.WithWhiteCutoff(cfg.WhiteCutoff),
		filter.WithTolerance(cfg.Tolerance),
		filter.WithCropRatio(cfg.CropRatio),
		filter.WithMinPixels(extractor.K()),
		filter.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return flt, extractor, nil
}

// runClassify executes a batch run. Progress lines go to progress and the
// summary report to stdout unless cfg.ReportFile is set.
func runClassify(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress, stdout io.Writer) error {
	tax, err := loadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return err
	}

	ds, err := dataset.Read(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}

	classifier, err := newClassifier(cfg, tax, logger)
	if err != nil {
		return err
	}

	pacer, err := throttle.New(throttle.Mode(cfg.ThrottleMode), cfg.Delay, cfg.Burst)
	if err != nil {
		return err
	}

	sink := dataset.NewWriter(ds, cfg.Output,
		dataset.WithBOM(cfg.BOM),
		dataset.WithKeepPriorColor(cfg.KeepPriorColor),
		dataset.WithDiagnostics(cfg.Diagnostics),
	)

	runOpts := []pipeline.BatchOption{
		pipeline.WithBatchLogger(logger),
		pipeline.WithCheckpointEvery(cfg.CheckpointEvery),
		pipeline.WithThrottle(pacer),
		pipeline.WithRetryFailed(cfg.RetryFailed),
		pipeline.WithObserver(progressPrinter(progress)),
	}

	if cfg.Resume {
		prior, err := dataset.ReadCheckpoint(cfg.Output)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Info("no checkpoint found, starting from the first row", "output", cfg.Output)
		case err != nil:
			return fmt.Errorf("failed to read checkpoint: %w", err)
		default:
			logger.Info("resuming from checkpoint", "output", cfg.Output, "rows", len(prior))
			runOpts = append(runOpts, pipeline.WithPriorResults(prior))
		}
	}

	rows := ds.Rows()
	var history *historyRecorder
	if !cfg.NoHistory {
		history, err = openHistory(ctx, cfg, len(rows), logger)
		if err != nil {
			return err
		}
		defer history.Close()
		runOpts = append(runOpts, pipeline.WithObserver(history.Observe))
	}

	runner := pipeline.NewBatchRunner(classifier, sink, runOpts...)
	summary, runErr := runner.Run(ctx, rows)
	summary.Input = cfg.Input
	summary.Output = cfg.Output

	history.Finish(summary)

	if err := writeReport(cfg, summary, stdout); err != nil {
		logger.Error("report failed", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	if summary.Interrupted {
		return fmt.Errorf("%w after %d of %d rows; rerun with --resume to continue",
			errInterrupted, summary.Completed(), summary.Total)
	}
	return nil
}

// progressPrinter prints one line per finished row.
func progressPrinter(w io.Writer) func(pipeline.Progress) {
	return func(p pipeline.Progress) {
		name := p.Result.Name
		if name == "" {
			name = p.Result.Identifier
		}
		switch {
		case p.Result.Failed:
			fmt.Fprintf(w, "[%d/%d] %s -> %s (%s)\n", p.Position, p.Total, name, p.Result.Label, p.Result.Error)
		case p.Result.Resumed:
			fmt.Fprintf(w, "[%d/%d] %s -> %s (resumed)\n", p.Position, p.Total, name, p.Result.Label)
		default:
			fmt.Fprintf(w, "[%d/%d] %s -> %s\n", p.Position, p.Total, name, p.Result.Label)
		}
	}
}

// writeReport outputs the run summary in the requested format.
func writeReport(cfg *config.Config, summary *model.Summary, stdout io.Writer) error {
	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return err
	}

	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	w, err := report.New(format, output, cfg.Verbose)
	if err != nil {
		return err
	}
	_, err = w.Write(summary)
	return err
}

// historyRecorder stores a run and its rows in the history database.
// History is secondary to the output file, so write failures are logged
// and never stop the run. A nil recorder is a no-op.
type historyRecorder struct {
	db     *database.ResultDB
	ctx    context.Context
	runID  int64
	logger *slog.Logger
}

// openHistory opens the history database and records the start of a run.
func openHistory(ctx context.Context, cfg *config.Config, total int, logger *slog.Logger) (*historyRecorder, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database (use --no-history to skip): %w", err)
	}

	// Rows finished before a cancellation are still recorded.
	recordCtx := context.WithoutCancel(ctx)
	runID, err := db.BeginRun(recordCtx, cfg.Input, cfg.Output, total, time.Now())
	if err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	logger.Debug("history run started", "run_id", runID, "db", db.Path())
	return &historyRecorder{db: db, ctx: recordCtx, runID: runID, logger: logger}, nil
}

// Observe saves each freshly processed row.
func (h *historyRecorder) Observe(p pipeline.Progress) {
	if h == nil || p.Result.Resumed {
		return
	}
	if err := h.db.SaveResult(h.ctx, h.runID, p.Result); err != nil {
		h.logger.Warn("failed to save result to history",
			"identifier", p.Result.Identifier,
			"error", err,
		)
	}
}

// Finish records the run summary.
func (h *historyRecorder) Finish(summary *model.Summary) {
	if h == nil {
		return
	}
	if err := h.db.FinishRun(h.ctx, h.runID, summary); err != nil {
		h.logger.Warn("failed to finish history run", "run_id", h.runID, "error", err)
	}
}

// Close closes the history database.
func (h *historyRecorder) Close() {
	if h == nil {
		return
	}
	if err := h.db.Close(); err != nil {
		h.logger.Warn("failed to close history database", "error", err)
	}
}
