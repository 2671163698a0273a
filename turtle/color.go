package turtle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGB is an 8-bit per channel color
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String renders the color as #rrggbb
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Predefined colors
var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
	// DefaultBackground is the dark canvas color
	DefaultBackground = RGB{10, 10, 20}
)

// palette follows the classic 16-entry Logo color numbering
var palette = [...]RGB{
	{0, 0, 0},       // 0 black
	{0, 0, 255},     // 1 blue
	{0, 255, 0},     // 2 green
	{0, 255, 255},   // 3 cyan
	{255, 0, 0},     // 4 red
	{255, 0, 255},   // 5 magenta
	{255, 255, 0},   // 6 yellow
	{255, 255, 255}, // 7 white
	{155, 96, 59},   // 8 brown
	{197, 136, 18},  // 9 tan
	{100, 162, 64},  // 10 forest
	{120, 187, 187}, // 11 aqua
	{255, 149, 119}, // 12 salmon
	{144, 113, 208}, // 13 purple
	{255, 163, 0},   // 14 orange
	{183, 183, 183}, // 15 grey
}

var namedColors = map[string]RGB{
	"BLACK":     palette[0],
	"BLUE":      palette[1],
	"GREEN":     palette[2],
	"CYAN":      palette[3],
	"RED":       palette[4],
	"MAGENTA":   palette[5],
	"YELLOW":    palette[6],
	"WHITE":     palette[7],
	"BROWN":     palette[8],
	"TAN":       palette[9],
	"FOREST":    palette[10],
	"AQUA":      palette[11],
	"SALMON":    palette[12],
	"PURPLE":    palette[13],
	"ORANGE":    palette[14],
	"GREY":      palette[15],
	"GRAY":      palette[15],
	"PINK":      {255, 192, 203},
	"LIGHTBLUE": {173, 216, 230},
}

// PaletteColor returns the color for a Logo palette index 0-15
func PaletteColor(index int) (RGB, bool) {
	if index < 0 || index >= len(palette) {
		return RGB{}, false
	}
	return palette[index], true
}

// NamedColor resolves a color name or a #rrggbb literal
func NamedColor(name string) (RGB, bool) {
	name = strings.ToUpper(strings.Trim(strings.TrimSpace(name), `"`))
	if c, ok := namedColors[name]; ok {
		return c, true
	}
	if len(name) == 7 && name[0] == '#' {
		v, err := strconv.ParseUint(name[1:], 16, 32)
		if err != nil {
			return RGB{}, false
		}
		return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
	}
	return RGB{}, false
}

// FromComponents builds a color from three numbers, clamping each into 0-255
func FromComponents(r, g, b float64) RGB {
	return RGB{clampChannel(r), clampChannel(g), clampChannel(b)}
}

func clampChannel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
