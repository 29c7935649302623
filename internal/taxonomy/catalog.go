package taxonomy

import "github.com/nao1215/colortag/internal/model"

func hue(lo, hi float64) *HueRange { return &HueRange{Min: lo, Max: hi} }
func value(lo, hi float64) *Range  { return &Range{Min: lo, Max: hi} }
func ceiling(v float64) *float64   { return &v }

// catalog is the built-in Pantone style apparel palette.
// Declaration order is the tie-break order.
var catalog = []Entry{
	// achromatic
	{Name: "black", Label: "Black (Pantone Black 6)", Reference: model.RGB{R: 0, G: 0, B: 0}, Value: value(0, 20), Tier: TierBlack},
	{Name: "white", Label: "White (Pantone White)", Reference: model.RGB{R: 255, G: 255, B: 255}, Value: value(90, 100), Tier: TierWhite},
	{Name: "dark_gray", Label: "Dark Gray (Pantone Cool Gray 11)", Reference: model.RGB{R: 83, G: 86, B: 90}, Hue: hue(180, 270), Value: value(20, 40), Tier: TierDarkGray},
	{Name: "gray", Label: "Gray (Pantone Cool Gray 8)", Reference: model.RGB{R: 147, G: 149, B: 152}, Hue: hue(180, 270), Value: value(40, 65), Tier: TierGray},
	{Name: "light_gray", Label: "Light Gray (Pantone Cool Gray 3)", Reference: model.RGB{R: 200, G: 201, B: 202}, Hue: hue(180, 270), Value: value(65, 90), Tier: TierLightGray},

	// blues
	{Name: "navy", Label: "Navy (Pantone 2767 C)", Reference: model.RGB{R: 13, G: 36, B: 107}, Hue: hue(200, 240)},
	{Name: "blue", Label: "Blue (Pantone 2945 C)", Reference: model.RGB{R: 0, G: 102, B: 179}, Hue: hue(190, 220)},
	{Name: "light_blue", Label: "Light Blue (Pantone 283 C)", Reference: model.RGB{R: 155, G: 194, B: 230}, Hue: hue(180, 210)},

	// greens
	{Name: "dark_green", Label: "Dark Green (Pantone 3308 C)", Reference: model.RGB{R: 0, G: 86, B: 63}, Hue: hue(130, 160)},
	{Name: "green", Label: "Green (Pantone 355 C)", Reference: model.RGB{R: 0, G: 135, B: 68}, Hue: hue(120, 180)},
	{Name: "light_green", Label: "Light Green (Pantone 351 C)", Reference: model.RGB{R: 175, G: 215, B: 145}, Hue: hue(80, 130)},

	// reds
	{Name: "red", Label: "Red (Pantone 186 C)", Reference: model.RGB{R: 200, G: 16, B: 46}, Hue: hue(350, 10)},
	{Name: "dark_red", Label: "Dark Red (Pantone 1815 C)", Reference: model.RGB{R: 135, G: 0, B: 35}, Hue: hue(340, 0)},
	{Name: "pink", Label: "Pink (Pantone 189 C)", Reference: model.RGB{R: 247, G: 168, B: 184}, Hue: hue(330, 360)},
	{Name: "burgundy", Label: "Burgundy (Pantone 209 C)", Reference: model.RGB{R: 123, G: 30, B: 66}, Hue: hue(330, 350)},

	// yellows
	{Name: "yellow", Label: "Yellow (Pantone 109 C)", Reference: model.RGB{R: 255, G: 209, B: 0}, Hue: hue(45, 60)},
	{Name: "light_yellow", Label: "Light Yellow (Pantone 100 C)", Reference: model.RGB{R: 244, G: 223, B: 142}, Hue: hue(40, 55)},

	// orange
	{Name: "orange", Label: "Orange (Pantone 021 C)", Reference: model.RGB{R: 254, G: 80, B: 0}, Hue: hue(15, 35)},

	// purples
	{Name: "dark_purple", Label: "Dark Purple (Pantone 2627 C)", Reference: model.RGB{R: 82, G: 35, B: 152}, Hue: hue(270, 290)},
	{Name: "purple", Label: "Purple (Pantone 2685 C)", Reference: model.RGB{R: 140, G: 91, B: 170}, Hue: hue(280, 310)},
	{Name: "light_purple", Label: "Light Purple (Pantone 2567 C)", Reference: model.RGB{R: 199, G: 180, B: 217}, Hue: hue(270, 300)},

	// browns
	{Name: "dark_brown", Label: "Dark Brown (Pantone 476 C)", Reference: model.RGB{R: 75, G: 56, B: 42}, Hue: hue(20, 40), SaturationMax: ceiling(50)},
	{Name: "brown", Label: "Brown (Pantone 4625 C)", Reference: model.RGB{R: 120, G: 94, B: 74}, Hue: hue(20, 40)},
	{Name: "beige", Label: "Beige (Pantone 468 C)", Reference: model.RGB{R: 214, G: 196, B: 166}, Hue: hue(30, 50), SaturationMax: ceiling(40)},
	{Name: "khaki", Label: "Khaki (Pantone 7502 C)", Reference: model.RGB{R: 164, G: 143, B: 110}, Hue: hue(30, 50)},
}

// Default returns the built-in 25 entry apparel taxonomy with "gray" as the
// fallback entry.
func Default() *Taxonomy {
	t, err := New(catalog)
	if err != nil {
		// The catalog is a compile-time constant; a validation error is a programming bug.
		panic("taxonomy: invalid built-in catalog: " + err.Error())
	}
	return t
}
