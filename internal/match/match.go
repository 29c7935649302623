// Package match classifies a single color sample against a taxonomy.
//
// Matching is total: every RGB triple in [0,255]^3 yields exactly one label.
// The algorithm runs in three stages:
//
//  1. Achromatic short-circuit: very dark, very bright or desaturated colors
//     are assigned to the taxonomy's black, white and gray tiers by fixed
//     thresholds, before any hue test is attempted.
//  2. Candidate selection: chromatic entries whose hue range (with
//     wraparound) and auxiliary saturation/value constraints hold.
//  3. Reference distance: the candidate whose reference RGB is nearest in
//     Euclidean distance wins; ties go to the entry declared first.
//
// When no candidate qualifies the taxonomy's fallback entry is returned with
// Match.Fallback set.
package match

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nao1215/colortag/internal/model"
	"github.com/nao1215/colortag/internal/taxonomy"
)

// AchromaticRules holds the thresholds of the achromatic short-circuit.
// All values are percentages except the hue band, which is in degrees.
type AchromaticRules struct {
	// BlackMaxV: V below this is black.
	BlackMaxV float64
	// WhiteMinV and WhiteMaxS: V above WhiteMinV with S below WhiteMaxS is white.
	WhiteMinV float64
	WhiteMaxS float64
	// GrayHue and GrayMaxS: a hue inside GrayHue with S below GrayMaxS is gray.
	GrayHue  taxonomy.HueRange
	GrayMaxS float64
	// NeutralMaxS: S below this is gray regardless of hue. Zero disables.
	NeutralMaxS float64
	// DarkGrayMaxV and GrayMaxV split the gray band into dark/mid/light tiers.
	DarkGrayMaxV float64
	GrayMaxV     float64
}

// Default achromatic thresholds.
const (
	DefaultBlackMaxV    = 20.0
	DefaultWhiteMinV    = 90.0
	DefaultWhiteMaxS    = 10.0
	DefaultGrayMaxS     = 20.0
	DefaultNeutralMaxS  = 5.0
	DefaultDarkGrayMaxV = 40.0
	DefaultGrayMaxV     = 65.0
)

// DefaultAchromaticRules returns the thresholds used for apparel photos.
func DefaultAchromaticRules() AchromaticRules {
	return AchromaticRules{
		BlackMaxV:    DefaultBlackMaxV,
		WhiteMinV:    DefaultWhiteMinV,
		WhiteMaxS:    DefaultWhiteMaxS,
		GrayHue:      taxonomy.HueRange{Min: 180, Max: 270},
		GrayMaxS:     DefaultGrayMaxS,
		NeutralMaxS:  DefaultNeutralMaxS,
		DarkGrayMaxV: DefaultDarkGrayMaxV,
		GrayMaxV:     DefaultGrayMaxV,
	}
}

// Matcher maps colors to taxonomy labels. It is read-only after New and safe
// for concurrent use.
type Matcher struct {
	tax       *taxonomy.Taxonomy
	chromatic []taxonomy.Entry
	rules     AchromaticRules
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithAchromaticRules replaces the default achromatic thresholds.
func WithAchromaticRules(r AchromaticRules) Option {
	return func(m *Matcher) {
		m.rules = r
	}
}

// New creates a Matcher over an immutable taxonomy.
func New(tax *taxonomy.Taxonomy, opts ...Option) *Matcher {
	m := &Matcher{
		tax:       tax,
		chromatic: tax.Chromatic(),
		rules:     DefaultAchromaticRules(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Taxonomy returns the taxonomy the matcher classifies into.
func (m *Matcher) Taxonomy() *taxonomy.Taxonomy {
	return m.tax
}

// ToHSV converts an RGB sample to HSV with H in [0,360) and S, V in [0,100].
func ToHSV(c model.RGB) model.HSV {
	col := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
	h, s, v := col.Hsv()
	if h >= 360 {
		h -= 360
	}
	return model.HSV{H: h, S: s * 100, V: v * 100}
}

// Match classifies one color. It never fails.
func (m *Matcher) Match(c model.RGB) model.Match {
	hsv := ToHSV(c)

	if tier, ok := m.achromaticTier(hsv); ok {
		if e, bound := m.tax.Tier(tier); bound {
			return model.Match{
				Label:      e.DisplayLabel(),
				EntryName:  e.Name,
				HSV:        hsv,
				Distance:   Distance(c, e.Reference),
				Achromatic: true,
			}
		}
	}

	best := -1
	bestDist := math.Inf(1)
	for i, e := range m.chromatic {
		if !e.Accepts(hsv) {
			continue
		}
		// Strict comparison keeps the first declared entry on ties.
		if d := Distance(c, e.Reference); d < bestDist {
			best = i
			bestDist = d
		}
	}

	if best < 0 {
		e := m.tax.Fallback()
		return model.Match{
			Label:     e.DisplayLabel(),
			EntryName: e.Name,
			HSV:       hsv,
			Distance:  Distance(c, e.Reference),
			Fallback:  true,
		}
	}

	e := m.chromatic[best]
	return model.Match{
		Label:     e.DisplayLabel(),
		EntryName: e.Name,
		HSV:       hsv,
		Distance:  bestDist,
	}
}

// achromaticTier applies the short-circuit thresholds in priority order.
func (m *Matcher) achromaticTier(hsv model.HSV) (taxonomy.Tier, bool) {
	r := m.rules
	if hsv.V < r.BlackMaxV {
		return taxonomy.TierBlack, true
	}
	if hsv.V > r.WhiteMinV && hsv.S < r.WhiteMaxS {
		return taxonomy.TierWhite, true
	}
	gray := r.GrayHue.Contains(hsv.H) && hsv.S < r.GrayMaxS
	if !gray && hsv.S < r.NeutralMaxS {
		gray = true
	}
	if !gray {
		return taxonomy.TierNone, false
	}
	switch {
	case hsv.V < r.DarkGrayMaxV:
		return taxonomy.TierDarkGray, true
	case hsv.V < r.GrayMaxV:
		return taxonomy.TierGray, true
	default:
		return taxonomy.TierLightGray, true
	}
}

// Distance is the Euclidean distance between two colors in RGB space.
func Distance(a, b model.RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
