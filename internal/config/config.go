package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/colortag/internal/cluster"
	"github.com/nao1215/colortag/internal/fetch"
	"github.com/nao1215/colortag/internal/filter"
	"github.com/nao1215/colortag/internal/pipeline"
	"github.com/nao1215/colortag/internal/report"
	"github.com/nao1215/colortag/internal/throttle"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "colortag"

	// DefaultTimeout bounds a single image download.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultGridSize is the edge length images are resized to before clustering.
	DefaultGridSize = fetch.DefaultGridSize

	// MinGridSize and MaxGridSize bound the resize grid.
	MinGridSize = 16
	MaxGridSize = 512

	// DefaultMaxBodySize limits the image body size to read.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultFilterMode is the background removal used unless --filter is set.
	DefaultFilterMode = string(filter.ModeStatistical)

	// DefaultStrategy picks the largest cluster as the dominant color.
	DefaultStrategy = string(cluster.StrategyLargest)

	// DefaultThrottleMode sleeps a fixed delay between requests.
	DefaultThrottleMode = string(throttle.ModeFixed)

	// DefaultDelay is the pause between image requests.
	// 1 second keeps bulk runs polite towards product image hosts.
	DefaultDelay = 1 * time.Second

	// DefaultBurst is the token bucket capacity.
	DefaultBurst = 1

	// DefaultCheckpointEvery is the number of rows between snapshots.
	DefaultCheckpointEvery = pipeline.DefaultCheckpointEvery

	// DefaultReportFormat is the summary format printed after a run.
	DefaultReportFormat = string(report.FormatText)
)

// Config holds all configuration options for colortag.
// This struct is populated from CLI flags and passed through the application
// via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ClusterConfig) for simplicity. Every field maps to
// exactly one CLI flag.
type Config struct {
	// Input is the CSV or TSV dataset to classify.
	Input string

	// Output is the result table path. It is also the checkpoint.
	Output string

	// Timeout is the per-image download timeout.
	Timeout time.Duration

	// GridSize is the edge length images are resized to.
	GridSize int

	// MaxBodySize is the maximum image body size in bytes.
	// Set to 0 to use the default.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with image requests.
	UserAgent string

	// Referer overrides the derived Referer header for every host.
	// When empty, the referer is derived from the image URL.
	Referer string

	// FilterMode selects the background removal variant.
	FilterMode string

	// MinValue drops pixels at or below this HSV value (0..100).
	MinValue float64

	// WhiteCutoff drops pixels whose channels are all above it.
	WhiteCutoff uint8

	// Tolerance is the segmentation flood fill distance.
	Tolerance float64

	// CropRatio is the salient square edge used by segmentation, relative
	// to the shorter grid edge. 1 keeps the whole grid.
	CropRatio float64

	// K is the number of clusters.
	K int

	// Seed makes clustering reproducible.
	Seed uint64

	// NInit is the number of k-means restarts.
	NInit int

	// Strategy selects how the dominant color is derived from the clusters.
	Strategy string

	// ThrottleMode selects how requests are paced.
	ThrottleMode string

	// Delay is the fixed delay, or the token refill interval for the bucket.
	Delay time.Duration

	// Burst is the token bucket capacity.
	Burst int

	// CheckpointEvery is the number of processed rows between snapshots.
	CheckpointEvery int

	// Resume skips rows already present in the output file.
	Resume bool

	// RetryFailed reprocesses rows marked as failed in the output file.
	// Only valid with Resume.
	RetryFailed bool

	// KeepPriorColor keeps an existing color column as color_old.
	KeepPriorColor bool

	// BOM writes a UTF-8 byte order mark for spreadsheet tools.
	BOM bool

	// Diagnostics adds the dominant_rgb column to the output.
	Diagnostics bool

	// TaxonomyPath loads a custom taxonomy yaml file.
	// When empty, the built-in taxonomy is used.
	TaxonomyPath string

	// ReportFormat is the summary format: text, json or markdown.
	ReportFormat string

	// ReportFile is the summary output path. Stdout when empty.
	ReportFile string

	// DBDir is the directory path for storing the history database.
	// Defaults to XDG data directory (~/.local/share/colortag on Linux).
	DBDir string

	// NoHistory disables recording runs in the history database.
	NoHistory bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .colortag in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Hosts holds per-host fetch settings loaded from the config file.
	Hosts *File

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFile routes logs to a rotating file instead of stderr.
	LogFile string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, seed).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeout,
		GridSize:        DefaultGridSize,
		MaxBodySize:     DefaultMaxBodySize,
		UserAgent:       fetch.DefaultUserAgent,
		FilterMode:      DefaultFilterMode,
		MinValue:        filter.DefaultMinValue,
		WhiteCutoff:     filter.DefaultWhiteCutoff,
		Tolerance:       filter.DefaultTolerance,
		CropRatio:       filter.DefaultCropRatio,
		K:               cluster.DefaultK,
		Seed:            cluster.DefaultSeed,
		NInit:           cluster.DefaultNInit,
		Strategy:        DefaultStrategy,
		ThrottleMode:    DefaultThrottleMode,
		Delay:           DefaultDelay,
		Burst:           DefaultBurst,
		CheckpointEvery: DefaultCheckpointEvery,
		ReportFormat:    DefaultReportFormat,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for colortag.
// On Linux: ~/.local/share/colortag
// On macOS: ~/Library/Application Support/colortag
// On Windows: %LOCALAPPDATA%\colortag
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for colortag.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Input == "" {
		return ErrNoInput
	}
	if c.Output == "" {
		return ErrNoOutput
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.GridSize < MinGridSize || c.GridSize > MaxGridSize {
		return ErrInvalidGridSize
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch filter.Mode(c.FilterMode) {
	case filter.ModeStatistical, filter.ModeSegmentation:
	default:
		return ErrInvalidFilterMode
	}
	if c.MinValue < 0 || c.MinValue > 100 {
		return ErrInvalidMinValue
	}
	if c.Tolerance < 0 {
		return ErrInvalidTolerance
	}
	if c.CropRatio <= 0 || c.CropRatio > 1 {
		return ErrInvalidCropRatio
	}

	if c.K <= 0 {
		return ErrInvalidK
	}
	if c.NInit <= 0 {
		return ErrInvalidNInit
	}
	if _, err := cluster.ParseStrategy(c.Strategy); err != nil {
		return ErrInvalidStrategy
	}

	switch throttle.Mode(c.ThrottleMode) {
	case throttle.ModeFixed, throttle.ModeBucket, throttle.ModeNone:
	default:
		return ErrInvalidThrottleMode
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if throttle.Mode(c.ThrottleMode) == throttle.ModeBucket && c.Burst <= 0 {
		return ErrInvalidBurst
	}

	if c.CheckpointEvery <= 0 {
		return ErrInvalidCheckpointEvery
	}
	if c.RetryFailed && !c.Resume {
		return ErrRetryWithoutResume
	}
	if _, err := report.ParseFormat(c.ReportFormat); err != nil {
		return ErrInvalidReportFormat
	}

	return nil
}

// HostOverrides returns the per-host fetch settings from the config file,
// or nil when no file was loaded.
func (c *Config) HostOverrides() map[string]fetch.HostOverride {
	if c.Hosts == nil {
		return nil
	}
	return c.Hosts.Overrides()
}
