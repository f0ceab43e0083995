package raster

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]string{
	"black":       "#000000",
	"white":       "#ffffff",
	"red":         "#ff0000",
	"green":       "#008000",
	"blue":        "#0000ff",
	"yellow":      "#ffff00",
	"orange":      "#ffa500",
	"purple":      "#800080",
	"pink":        "#ffc0cb",
	"gray":        "#808080",
	"grey":        "#808080",
	"transparent": "",
}

// ParseColor reads "#rgb", "#rrggbb" or a basic CSS color name and applies
// opacity in [0,1]. Unparseable input yields ok=false.
func ParseColor(s string, opacity float64) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		if hex == "" {
			return color.NRGBA{}, true
		}
		s = hex
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(clamp01(opacity)*255 + 0.5)}, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
