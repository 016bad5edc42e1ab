package light

import "testing"

func TestHSVToRGB(t *testing.T) {
	tests := []struct {
		name    string
		h, s, v float64
		want    [3]uint8
	}{
		{"red", 0, 100, 100, [3]uint8{255, 0, 0}},
		{"green", 120, 100, 100, [3]uint8{0, 255, 0}},
		{"blue", 240, 100, 100, [3]uint8{0, 0, 255}},
		{"white when unsaturated", 200, 0, 100, [3]uint8{255, 255, 255}},
		{"half saturated yellow", 60, 50, 100, [3]uint8{255, 255, 127}},
		{"orange truncates", 30, 100, 100, [3]uint8{255, 127, 0}},
		{"half value grey", 0, 0, 50, [3]uint8{127, 127, 127}},
		{"full circle wraps to red", 360, 100, 100, [3]uint8{255, 0, 0}},
		{"negative hue wraps", -120, 100, 100, [3]uint8{0, 0, 255}},
		{"value zero is black", 90, 100, 0, [3]uint8{0, 0, 0}},
		{"saturation clamped", 0, 150, 100, [3]uint8{255, 0, 0}},
		{"magenta", 300, 100, 100, [3]uint8{255, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := HSVToRGB(tt.h, tt.s, tt.v)
			if got := [3]uint8{r, g, b}; got != tt.want {
				t.Errorf("HSVToRGB(%v, %v, %v) = %v, want %v", tt.h, tt.s, tt.v, got, tt.want)
			}
		})
	}
}
