package taxonomy

import (
	"fmt"

	"github.com/nao1215/colortag/internal/model"
	"golang.org/x/text/cases"
)

// Tier identifies an achromatic bucket evaluated by dedicated rules.
type Tier string

// Achromatic tiers. TierNone marks a chromatic entry.
const (
	TierNone      Tier = ""
	TierBlack     Tier = "black"
	TierWhite     Tier = "white"
	TierDarkGray  Tier = "dark_gray"
	TierGray      Tier = "gray"
	TierLightGray Tier = "light_gray"
)

// Valid reports whether t is TierNone or a known achromatic tier.
func (t Tier) Valid() bool {
	switch t {
	case TierNone, TierBlack, TierWhite, TierDarkGray, TierGray, TierLightGray:
		return true
	default:
		return false
	}
}

// HueRange is a circular range of hue degrees.
// When Min > Max the range wraps through 0/360: {350, 10} covers 350..359 and 0..10.
type HueRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether hue h (degrees) falls inside the range, bounds inclusive.
func (r HueRange) Contains(h float64) bool {
	if r.Min > r.Max {
		return h >= r.Min || h <= r.Max
	}
	return h >= r.Min && h <= r.Max
}

// Wraps reports whether the range crosses the 0/360 boundary.
func (r HueRange) Wraps() bool {
	return r.Min > r.Max
}

// Range is an inclusive linear range on a percentage scale.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v falls inside the range, bounds inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Entry is one named color category and its acceptance rule.
type Entry struct {
	// Name is the stable key of the entry (e.g. "navy").
	Name string

	// Label is written to the dataset. Falls back to Name when empty.
	Label string

	// Reference is the color used for distance comparison between candidates.
	Reference model.RGB

	// Hue is the accepted hue range. Nil for entries without a hue rule.
	Hue *HueRange

	// SaturationMax, when set, rejects samples with a higher saturation.
	SaturationMax *float64

	// Value, when set, rejects samples whose value lies outside the range.
	Value *Range

	// Tier binds the entry to an achromatic rule. TierNone for chromatic entries.
	Tier Tier
}

// DisplayLabel returns Label, or Name when Label is empty.
func (e Entry) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Name
}

// Achromatic reports whether the entry is bound to an achromatic tier.
func (e Entry) Achromatic() bool {
	return e.Tier != TierNone
}

// Accepts reports whether an HSV sample satisfies the entry's hue range and
// every declared auxiliary constraint. Entries without a hue range never accept.
func (e Entry) Accepts(hsv model.HSV) bool {
	if e.Hue == nil || !e.Hue.Contains(hsv.H) {
		return false
	}
	if e.SaturationMax != nil && hsv.S > *e.SaturationMax {
		return false
	}
	if e.Value != nil && !e.Value.Contains(hsv.V) {
		return false
	}
	return true
}

// clone returns a deep copy so callers can never mutate shared state.
func (e Entry) clone() Entry {
	c := e
	if e.Hue != nil {
		h := *e.Hue
		c.Hue = &h
	}
	if e.SaturationMax != nil {
		s := *e.SaturationMax
		c.SaturationMax = &s
	}
	if e.Value != nil {
		v := *e.Value
		c.Value = &v
	}
	return c
}

// Taxonomy is an immutable ordered set of entries.
type Taxonomy struct {
	entries     []Entry
	chromatic   []Entry
	byName      map[string]int
	tiers       map[Tier]int
	defaultName string
}

// Option configures a Taxonomy during construction.
type Option func(*Taxonomy)

// WithDefault sets the entry returned when no entry qualifies for a sample.
// The default is DefaultEntryName.
func WithDefault(name string) Option {
	return func(t *Taxonomy) {
		t.defaultName = name
	}
}

// DefaultEntryName is the fallback entry of the built-in taxonomy.
const DefaultEntryName = "gray"

// foldName normalizes entry names for case-insensitive lookup.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// New validates entries and returns an immutable Taxonomy.
// Entries are copied, so later changes to the argument slice have no effect.
func New(entries []Entry, opts ...Option) (*Taxonomy, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTaxonomy
	}

	t := &Taxonomy{
		entries:     make([]Entry, 0, len(entries)),
		byName:      make(map[string]int, len(entries)),
		tiers:       make(map[Tier]int),
		defaultName: DefaultEntryName,
	}
	for _, opt := range opts {
		opt(t)
	}

	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, e.Name, err)
		}

		key := foldName(e.Name)
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		if e.Tier != TierNone {
			if _, dup := t.tiers[e.Tier]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateTier, e.Tier)
			}
			t.tiers[e.Tier] = len(t.entries)
		}

		t.byName[key] = len(t.entries)
		t.entries = append(t.entries, e.clone())
	}

	if _, ok := t.byName[foldName(t.defaultName)]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefault, t.defaultName)
	}

	for _, e := range t.entries {
		if e.Hue != nil && !e.Achromatic() {
			t.chromatic = append(t.chromatic, e)
		}
	}

	return t, nil
}

// validateEntry checks a single entry's fields.
func validateEntry(e Entry) error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if !e.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTier, e.Tier)
	}
	if e.Hue == nil && e.Tier == TierNone {
		return ErrNoMatchRule
	}
	if e.Hue != nil {
		if e.Hue.Min < 0 || e.Hue.Min > 360 || e.Hue.Max < 0 || e.Hue.Max > 360 {
			return ErrInvalidHueRange
		}
	}
	if e.SaturationMax != nil && (*e.SaturationMax < 0 || *e.SaturationMax > 100) {
		return ErrInvalidRange
	}
	if e.Value != nil {
		if e.Value.Min < 0 || e.Value.Max > 100 || e.Value.Min > e.Value.Max {
			return ErrInvalidRange
		}
	}
	return nil
}

// Len returns the number of entries.
func (t *Taxonomy) Len() int {
	return len(t.entries)
}

// Entries returns a copy of all entries in declaration order.
func (t *Taxonomy) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.clone()
	}
	return out
}

// Chromatic returns, in declaration order, the entries that declare a hue
// range and are not bound to an achromatic tier.
func (t *Taxonomy) Chromatic() []Entry {
	out := make([]Entry, len(t.chromatic))
	for i, e := range t.chromatic {
		out[i] = e.clone()
	}
	return out
}

// Lookup returns the entry with the given name, ignoring case.
func (t *Taxonomy) Lookup(name string) (Entry, bool) {
	i, ok := t.byName[foldName(name)]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i].clone(), true
}

// Tier returns the entry bound to an achromatic tier.
func (t *Taxonomy) Tier(tier Tier) (Entry, bool) {
	i, ok := t.tiers[tier]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i].clone(), true
}

// Fallback returns the default entry used when nothing else qualifies.
func (t *Taxonomy) Fallback() Entry {
	e, _ := t.Lookup(t.defaultName) //nolint:errcheck // presence is validated in New
	return e
}
