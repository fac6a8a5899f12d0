package checks

import (
	"math"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in    string
		hex   string
		alpha float64
		ok    bool
	}{
		{"rgb(255, 0, 0)", "#ff0000", 1, true},
		{"rgba(0, 0, 255, 0.5)", "#0000ff", 0.5, true},
		{"rgb(0 128 0 / 25%)", "#008000", 0.25, true},
		{"RGB(100%, 100%, 100%)", "#ffffff", 1, true},
		{"#abc", "#aabbcc", 1, true},
		{"#112233", "#112233", 1, true},
		{"transparent", "#000000", 0, true},
		{"", "", 0, false},
		{"hsl(0, 100%, 50%)", "", 0, false},
		{"rgb(1, 2)", "", 0, false},
		{"#zzzzzz", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, a, ok := parseColor(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if c.Hex() != tt.hex {
				t.Errorf("Hex() = %s, want %s", c.Hex(), tt.hex)
			}
			if math.Abs(a-tt.alpha) > 1e-9 {
				t.Errorf("alpha = %v, want %v", a, tt.alpha)
			}
		})
	}
}

func TestTextContrast(t *testing.T) {
	tests := []struct {
		name   string
		fg, bg string
		want   float64
		ok     bool
	}{
		{"black on white", "rgb(0, 0, 0)", "rgb(255, 255, 255)", 21, true},
		{"same colour", "#777777", "#777777", 1, true},
		{"transparent background reads as white", "#000", "transparent", 21, true},
		{"missing background reads as white", "#000", "", 21, true},
		{"WCAG reference grey", "#767676", "#ffffff", 4.54, true},
		{"half-transparent black", "rgba(0, 0, 0, 0.5)", "#fff", 3.98, true},
		{"unparseable foreground", "currentcolor", "#fff", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := textContrast(tt.fg, tt.bg)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 0.02 {
				t.Errorf("contrast = %.3f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestContrastRatioIsSymmetric(t *testing.T) {
	a, _, _ := parseColor("rgb(12, 200, 40)")
	b, _, _ := parseColor("rgb(240, 240, 10)")
	if contrastRatio(a, b) != contrastRatio(b, a) {
		t.Error("contrastRatio should not depend on argument order")
	}
}
