package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoInput is returned when no input dataset is specified.
	ErrNoInput = errors.New("no input specified: provide a CSV or TSV dataset")

	// ErrNoOutput is returned when no output path is specified.
	// The output doubles as the checkpoint, so it cannot be omitted.
	ErrNoOutput = errors.New("no output specified: use --output")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidGridSize is returned when the resize grid is outside 16..512.
	ErrInvalidGridSize = errors.New("invalid grid size: must be between 16 and 512")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidFilterMode is returned for an unknown background filter.
	ErrInvalidFilterMode = errors.New("invalid filter: must be statistical or segmentation")

	// ErrInvalidMinValue is returned when the dark cutoff is outside 0..100.
	ErrInvalidMinValue = errors.New("invalid min value: must be between 0 and 100")

	// ErrInvalidTolerance is returned when the segmentation tolerance is negative.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be non-negative")

	// ErrInvalidCropRatio is returned when the salient crop ratio is outside (0,1].
	ErrInvalidCropRatio = errors.New("invalid crop ratio: must be greater than 0 and at most 1")

	// ErrInvalidK is returned when the cluster count is not positive.
	ErrInvalidK = errors.New("invalid cluster count: must be positive")

	// ErrInvalidNInit is returned when the number of k-means restarts is not positive.
	ErrInvalidNInit = errors.New("invalid n-init: must be positive")

	// ErrInvalidStrategy is returned for an unknown dominant color strategy.
	ErrInvalidStrategy = errors.New("invalid strategy: must be largest or mean")

	// ErrInvalidThrottleMode is returned for an unknown throttle.
	ErrInvalidThrottleMode = errors.New("invalid throttle: must be fixed, bucket or none")

	// ErrInvalidDelay is returned when the delay between requests is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidBurst is returned when the token bucket burst is not positive.
	ErrInvalidBurst = errors.New("invalid burst: must be positive")

	// ErrInvalidCheckpointEvery is returned when the checkpoint interval is not positive.
	ErrInvalidCheckpointEvery = errors.New("invalid checkpoint interval: must be positive")

	// ErrRetryWithoutResume is returned when --retry-failed is used without --resume.
	ErrRetryWithoutResume = errors.New("--retry-failed requires --resume")

	// ErrInvalidReportFormat is returned for an unknown summary format.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, json or markdown")
)
