package taxonomy

import "errors"

// Taxonomy validation errors returned by New.
var (
	// ErrEmptyTaxonomy is returned when no entries are given.
	ErrEmptyTaxonomy = errors.New("taxonomy has no entries")

	// ErrEmptyName is returned when an entry has no name.
	ErrEmptyName = errors.New("taxonomy entry has an empty name")

	// ErrDuplicateName is returned when two entries share a name (case-insensitive).
	ErrDuplicateName = errors.New("duplicate taxonomy entry name")

	// ErrInvalidHueRange is returned when a hue bound is outside [0,360].
	ErrInvalidHueRange = errors.New("invalid hue range: bounds must be within [0,360]")

	// ErrInvalidRange is returned when a saturation/value range is outside [0,100] or inverted.
	ErrInvalidRange = errors.New("invalid range: bounds must be within [0,100] and min <= max")

	// ErrDuplicateTier is returned when two entries are bound to the same achromatic tier.
	ErrDuplicateTier = errors.New("achromatic tier bound more than once")

	// ErrUnknownTier is returned when an entry names a tier that does not exist.
	ErrUnknownTier = errors.New("unknown achromatic tier")

	// ErrNoMatchRule is returned when a chromatic entry has no hue range.
	ErrNoMatchRule = errors.New("entry has neither a hue range nor an achromatic tier")

	// ErrUnknownDefault is returned when the default entry name is not in the taxonomy.
	ErrUnknownDefault = errors.New("default entry not found in taxonomy")
)
