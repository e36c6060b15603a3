package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var rgbaRegex = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*[\d.]+\s*)?\)$`)

// fallbackPalette is used when a dataset carries no usable color
var fallbackPalette = []lipgloss.Color{
	lipgloss.Color("12"),
	lipgloss.Color("11"),
	lipgloss.Color("14"),
	lipgloss.Color("13"),
	lipgloss.Color("10"),
	lipgloss.Color("9"),
}

// ParseColor converts a CSS color (rgb, rgba, #rgb or #rrggbb) into a
// terminal color. Alpha is dropped.
func ParseColor(css string) (lipgloss.Color, bool) {
	css = strings.TrimSpace(strings.ToLower(css))
	if css == "" {
		return "", false
	}

	if strings.HasPrefix(css, "#") {
		hex := css[1:]
		switch len(hex) {
		case 3:
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		case 6, 8:
			hex = hex[:6]
		default:
			return "", false
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", false
		}
		return lipgloss.Color("#" + hex), true
	}

	m := rgbaRegex.FindStringSubmatch(css)
	if m == nil {
		return "", false
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(m[i+1])
		if err != nil || v > 255 {
			return "", false
		}
		rgb[i] = v
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])), true
}

// colorFor picks the color at index i from the list, falling back to the
// palette entry for fallback when the list is empty or unparsable.
func colorFor(list []string, i, fallback int) lipgloss.Color {
	if len(list) > 0 {
		if c, ok := ParseColor(list[i%len(list)]); ok {
			return c
		}
	}
	return fallbackPalette[fallback%len(fallbackPalette)]
}
