package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/nao1215/colortag/internal/model"
	"gonum.org/v1/gonum/floats"
)

// Strategy selects how the dominant color is derived from the clusters.
type Strategy string

// Supported strategies.
const (
	// StrategyLargest returns the centroid of the most populated cluster.
	StrategyLargest Strategy = "largest"

	// StrategyMean returns the mean color of all pixels (k forced to 1).
	StrategyMean Strategy = "mean"
)

// ErrUnknownStrategy is returned by ParseStrategy.
var ErrUnknownStrategy = errors.New("unknown dominant color strategy")

// ParseStrategy converts a configuration string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLargest, "":
		return StrategyLargest, nil
	case StrategyMean:
		return StrategyMean, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Defaults.
const (
	DefaultK                    = 5
	DefaultSeed          uint64 = 42
	DefaultNInit                = 10
	DefaultMaxIterations        = 300
	DefaultTolerance            = 1e-4
)

// Extractor computes dominant colors. It holds no mutable state, so one
// Extractor can serve any number of sequential calls with identical results.
type Extractor struct {
	k         int
	seed      uint64
	nInit     int
	maxIter   int
	tolerance float64
	strategy  Strategy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithK sets the number of clusters.
func WithK(k int) Option {
	return func(e *Extractor) {
		e.k = k
	}
}

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(e *Extractor) {
		e.seed = seed
	}
}

// WithNInit sets the number of k-means restarts.
func WithNInit(n int) Option {
	return func(e *Extractor) {
		e.nInit = n
	}
}

// WithMaxIterations bounds the Lloyd iterations per restart.
func WithMaxIterations(n int) Option {
	return func(e *Extractor) {
		e.maxIter = n
	}
}

// WithStrategy sets the selection strategy.
func WithStrategy(s Strategy) Option {
	return func(e *Extractor) {
		e.strategy = s
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		k:         DefaultK,
		seed:      DefaultSeed,
		nInit:     DefaultNInit,
		maxIter:   DefaultMaxIterations,
		tolerance: DefaultTolerance,
		strategy:  StrategyLargest,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.k < 1 {
		e.k = 1
	}
	return e
}

// K returns the effective requested cluster count for the strategy.
func (e *Extractor) K() int {
	if e.strategy == StrategyMean {
		return 1
	}
	return e.k
}

// Extract returns the dominant color of pixels. An empty set yields white
// with Degenerate set.
func (e *Extractor) Extract(pixels []model.RGB) model.Extraction {
	if len(pixels) == 0 {
		return model.Extraction{Dominant: model.White, Degenerate: true}
	}

	k := min(e.K(), len(pixels))
	points := make([][]float64, len(pixels))
	for i, p := range pixels {
		points[i] = []float64{float64(p.R), float64(p.G), float64(p.B)}
	}

	rng := rand.New(rand.NewPCG(e.seed, e.seed)) //nolint:gosec // reproducibility, not security
	r := kmeans(points, k, e.nInit, e.maxIter, e.tolerance, rng)

	members := make([]float64, k)
	for _, l := range r.labels {
		members[l]++
	}

	clusters := make([]model.Cluster, k)
	for c := range clusters {
		clusters[c] = model.Cluster{
			Centroid: toRGB(r.centers[c]),
			Members:  int(members[c]),
		}
	}

	// MaxIdx returns the first maximum, so ties resolve to the lowest index.
	dominant := floats.MaxIdx(members)
	return model.Extraction{
		Dominant: clusters[dominant].Centroid,
		Clusters: clusters,
	}
}

// toRGB rounds and clamps a centroid to integer RGB.
func toRGB(c []float64) model.RGB {
	return model.RGB{R: channel(c[0]), G: channel(c[1]), B: channel(c[2])}
}

func channel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
