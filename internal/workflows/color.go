package workflows

import (
	"fmt"
	"strings"
)

// Color is a palette entry used to tag workflows.
type Color struct {
	Name string
	Hex  string
}

// Palette is the fixed set of color tags, in display order.
var Palette = []Color{
	{Name: "red", Hex: "#FF3B30"},
	{Name: "orange", Hex: "#FF9500"},
	{Name: "yellow", Hex: "#FFCC00"},
	{Name: "green", Hex: "#34C759"},
	{Name: "blue", Hex: "#007AFF"},
	{Name: "purple", Hex: "#AF52DE"},
	{Name: "gray", Hex: "#8E8E93"},
}

// IsPaletteColor reports whether hex is one of the palette values.
func IsPaletteColor(hex string) bool {
	for _, c := range Palette {
		if strings.EqualFold(c.Hex, hex) {
			return true
		}
	}
	return false
}

// ResolveColor maps a color name or hex value to its canonical hex form.
// An empty input resolves to the empty string (no tag).
func ResolveColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, c := range Palette {
		if strings.EqualFold(c.Name, s) || strings.EqualFold(c.Hex, s) {
			return c.Hex, nil
		}
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// ColorName returns the palette name for hex, or hex itself when unknown.
func ColorName(hex string) string {
	for _, c := range Palette {
		if strings.EqualFold(c.Hex, hex) {
			return c.Name
		}
	}
	return hex
}
