// Package motion has the pure animation primitives shared by the renderer,
// effects and text animation: interpolation, easing, springs and the frame
// hash used in place of a random generator.
package motion

import (
	"hash/fnv"
	"math"
)

// Lerp performs linear interpolation between a and b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Interpolate maps x from [in0, in1] onto [out0, out1], clamping on both
// sides. At x >= in1 it returns out1 exactly.
func Interpolate(x, in0, in1, out0, out1 float64) float64 {
	if x <= in0 {
		if in0 == in1 {
			return out1
		}
		return out0
	}
	if x >= in1 {
		return out1
	}
	return Lerp(out0, out1, (x-in0)/(in1-in0))
}

// EaseInOutCubic applies smooth easing function
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// EaseOutCubic decelerates into the target.
func EaseOutCubic(t float64) float64 {
	return 1 - pow(1-t, 3)
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

// SpringConfig describes a damped spring with unit travel.
type SpringConfig struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

// DefaultSpring is a lively spring with visible overshoot.
var DefaultSpring = SpringConfig{Mass: 1, Stiffness: 100, Damping: 10}

// SmoothSpring settles without overshoot.
var SmoothSpring = SpringConfig{Mass: 1, Stiffness: 100, Damping: 20}

// Spring returns the position of a spring released at frame 0 travelling
// from 0 to 1, evaluated in closed form so any frame can be computed alone.
func Spring(frame, fps int, cfg SpringConfig) float64 {
	if frame <= 0 || fps <= 0 {
		return 0
	}
	if cfg.Mass <= 0 {
		cfg.Mass = 1
	}
	if cfg.Stiffness <= 0 {
		return 1
	}

	t := float64(frame) / float64(fps)
	omega := math.Sqrt(cfg.Stiffness / cfg.Mass)
	zeta := cfg.Damping / (2 * math.Sqrt(cfg.Stiffness*cfg.Mass))

	switch {
	case zeta < 1:
		wd := omega * math.Sqrt(1-zeta*zeta)
		env := math.Exp(-zeta * omega * t)
		return 1 - env*(math.Cos(wd*t)+(zeta*omega/wd)*math.Sin(wd*t))
	case zeta == 1:
		return 1 - math.Exp(-omega*t)*(1+omega*t)
	default:
		s := omega * math.Sqrt(zeta*zeta-1)
		r1 := -zeta*omega + s
		r2 := -zeta*omega - s
		// x(0)=0, x'(0)=0 with target 1
		c1 := r2 / (r2 - r1)
		c2 := -r1 / (r2 - r1)
		return 1 - (c1*math.Exp(r1*t) + c2*math.Exp(r2*t))
	}
}

// Hash maps a seed string to a float in [0,1). It is the only source of
// "randomness" in rendering, so identical seeds always give identical frames.
func Hash(seed string) float64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	// 53 bits fit a float64 mantissa exactly
	return float64(h.Sum64()>>11) / float64(uint64(1)<<53)
}
