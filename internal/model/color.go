package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned when a color string cannot be parsed.
var ErrInvalidColor = errors.New("invalid color: expected #rrggbb or r,g,b")

// RGB is an 8-bit per channel color sample. Alpha is never carried:
// images are flattened before pixels reach the engine.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// White is the defined default color for degenerate (empty) pixel sets.
var White = RGB{R: 255, G: 255, B: 255}

// Hex returns the color in #rrggbb form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer using the "(r, g, b)" form used in progress output.
func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// HSV is a color in hue/saturation/value space.
// H is in degrees [0,360); S and V are percentages [0,100].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// String implements fmt.Stringer.
func (c HSV) String() string {
	return fmt.Sprintf("H=%.1f S=%.1f V=%.1f", c.H, c.S, c.V)
}

// ParseRGB parses "#rrggbb", "rrggbb", "r,g,b" or "(r, g, b)".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "rgb("), ")")

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		var channels [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
			}
			channels[i] = uint8(v)
		}
		return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}
