package checks

import (
	"regexp"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var cssColor = regexp.MustCompile(`^rgba?\(\s*([^)]*)\)$`)

var white = colorful.Color{R: 1, G: 1, B: 1}

// parseColor reads the computed-style colour forms Chrome reports (rgb(),
// rgba() and hex) and returns the colour with its alpha.
func parseColor(s string) (colorful.Color, float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return colorful.Color{}, 0, false
	case s == "transparent":
		return colorful.Color{}, 0, true
	case strings.HasPrefix(s, "#"):
		if len(s) == 4 {
			s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return colorful.Color{}, 0, false
		}
		return c, 1, true
	}

	m := cssColor.FindStringSubmatch(s)
	if m == nil {
		return colorful.Color{}, 0, false
	}
	parts := strings.FieldsFunc(m[1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 || len(parts) > 4 {
		return colorful.Color{}, 0, false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, err := channel(parts[i], 255)
		if err != nil {
			return colorful.Color{}, 0, false
		}
		ch[i] = v
	}
	alpha := 1.0
	if len(parts) == 4 {
		v, err := channel(parts[3], 1)
		if err != nil {
			return colorful.Color{}, 0, false
		}
		alpha = v
	}
	return colorful.Color{R: ch[0], G: ch[1], B: ch[2]}.Clamped(), clamp01(alpha), true
}

// channel parses a number or percentage and scales it to 0..1
func channel(s string, max float64) (float64, error) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return v / 100, err
	}
	v, err := strconv.ParseFloat(s, 64)
	return v / max, err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// over composites a translucent foreground onto an opaque background
func over(fg colorful.Color, alpha float64, bg colorful.Color) colorful.Color {
	if alpha >= 1 {
		return fg
	}
	return bg.BlendRgb(fg, alpha)
}

// luminance is the WCAG relative luminance of c
func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// contrastRatio is the WCAG contrast ratio between two opaque colours
func contrastRatio(a, b colorful.Color) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// textContrast resolves fg and bg strings and returns their contrast. A
// missing or transparent background is treated as white.
func textContrast(fg, bg string) (float64, bool) {
	bgc, bga, ok := parseColor(bg)
	if !ok || bga == 0 {
		bgc, bga = white, 1
	}
	bgc = over(bgc, bga, white)
	fgc, fga, ok := parseColor(fg)
	if !ok {
		return 0, false
	}
	return contrastRatio(over(fgc, fga, bgc), bgc), true
}
