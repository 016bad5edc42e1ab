package light

import "math"

// HSVToRGB converts hue in degrees [0,360] and saturation/value in percent
// [0,100] to 8-bit RGB. Components are truncated, so 127.5 becomes 127.
func HSVToRGB(h, s, v float64) (r, g, b uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clampPercent(s) / 100
	v = clampPercent(v) / 100

	var fr, fg, fb float64
	if s == 0 {
		fr, fg, fb = v, v, v
	} else {
		hh := h / 360 * 6
		i := int(hh)
		f := hh - float64(i)
		p := v * (1 - s)
		q := v * (1 - s*f)
		t := v * (1 - s*(1-f))
		switch i % 6 {
		case 0:
			fr, fg, fb = v, t, p
		case 1:
			fr, fg, fb = q, v, p
		case 2:
			fr, fg, fb = p, v, t
		case 3:
			fr, fg, fb = p, q, v
		case 4:
			fr, fg, fb = t, p, v
		default:
			fr, fg, fb = v, p, q
		}
	}
	return to8(fr), to8(fg), to8(fb)
}

func clampPercent(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}

// to8 scales x in [0,1] to 0..255, dropping the fraction.
func to8(x float64) uint8 {
	return uint8(x * 255)
}
