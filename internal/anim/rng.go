package anim

import "math"

// lcg is the 32-bit linear congruential generator the animation draws from.
// The same seed always replays the same animation.
type lcg uint32

// Float returns a uniform value in [0,1) from the top 24 bits.
func (s *lcg) Float() float64 {
	*s = *s*1664525 + 1013904223
	return float64(*s>>8) / (1 << 24)
}

func smoothstep(x float64) float64 {
	x = clamp01(x)
	return x * x * (3 - 2*x)
}

func smootherstep(x float64) float64 {
	x = clamp01(x)
	return x * x * x * (x*(6*x-15) + 10)
}

func clamp01(x float64) float64 { return clamp(x, 0, 1) }

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func lerp(a, b, t float64) float64 { return a*(1-t) + b*t }
