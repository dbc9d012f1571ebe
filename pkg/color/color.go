// Package color implements the RGB interpolation, alpha-over compositing,
// and brightness scaling primitives shared by every rendering layer
// (segment sampling, effect compositing, manager transition dimming).
package color

import "math"

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// ErrorColor is substituted whenever a palette index is out of range.
var ErrorColor = RGB{R: 255, G: 0, B: 0}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Interpolate computes the componentwise lerp of a and b at t, t clamped
// to [0,1] first.
func Interpolate(a, b RGB, t float64) RGB {
	t = clamp01(t)
	return RGB{
		R: clamp255(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: clamp255(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: clamp255(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// Brightness scales rgb by k, clamped to [0,1].
func Brightness(rgb RGB, k float64) RGB {
	k = clamp01(k)
	return RGB{
		R: clamp255(float64(rgb.R) * k),
		G: clamp255(float64(rgb.G) * k),
		B: clamp255(float64(rgb.B) * k),
	}
}

const alphaEpsilon = 1e-6

// Over composites src over dst using Porter-Duff "over", returning the
// resulting color and alpha.
func Over(dstRGB RGB, dstA float64, srcRGB RGB, srcA float64) (RGB, float64) {
	outA := srcA + dstA*(1-srcA)
	if outA <= alphaEpsilon {
		return RGB{}, 0
	}

	sr, sg, sb := float64(srcRGB.R), float64(srcRGB.G), float64(srcRGB.B)
	dr, dg, db := float64(dstRGB.R), float64(dstRGB.G), float64(dstRGB.B)

	r := (sr*srcA + dr*dstA*(1-srcA)) / outA
	g := (sg*srcA + dg*dstA*(1-srcA)) / outA
	b := (sb*srcA + db*dstA*(1-srcA)) / outA

	return RGB{R: clamp255(r), G: clamp255(g), B: clamp255(b)}, outA
}
