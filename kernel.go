package solver

import "math"

// Kernel holds the seven process-wide constants derived from one scalar
// kernel radius h, and evaluates the three SPH kernels spec.md §4.C names:
// poly6 (density), the spiky gradient (pressure/position correction), and
// the Akinci cohesion spline (surface tension).
//
// Grounded on this codebase's fluid-particle system, which precomputes a
// poly6 and a spiky-gradient coefficient from one SmoothingRadius field and
// evaluates them with the same piecewise "return 0 outside the support
// radius" shape used here; this solver adds the Akinci spline, which has
// no analogue there and is built straight from spec.md's formula using the
// standard published normalization constants.
type Kernel struct {
	h  float32
	h2 float32
	hHalf float32

	poly6Coeff float32 // C1
	spikyCoeff float32 // C2
	akinciHigh float32 // C3
	akinciLow  float32 // C4
}

// NewKernel precomputes the seven constants for kernel radius h.
func NewKernel(h float32) Kernel {
	h2 := h * h
	h6 := h2 * h2 * h2
	h9 := h6 * h2 * h
	pi := float32(math.Pi)
	return Kernel{
		h:          h,
		h2:         h2,
		hHalf:      h / 2,
		poly6Coeff: 315.0 / (64.0 * pi * h9),
		spikyCoeff: -45.0 / (pi * h6),
		akinciHigh: 32.0 / (pi * h9),
		akinciLow:  h6 / 64.0,
	}
}

// Poly6 evaluates W_poly6(r²) = C1·(h²−r²)³ for r²≤h², else 0.
func (k Kernel) Poly6(r2 float32) float32 {
	if r2 >= k.h2 || r2 < 0 {
		return 0
	}
	d := k.h2 - r2
	return k.poly6Coeff * d * d * d
}

// SpikyGradientScalar evaluates the scalar coefficient of ∇W_spiky: the
// caller multiplies the result by v/r to get the vector gradient, matching
// spec.md's "∇W_spiky(v, r²) = C2·(h−r)²·v/r".
func (k Kernel) SpikyGradientScalar(r float32) float32 {
	if r <= 0 || r >= k.h {
		return 0
	}
	d := k.h - r
	return k.spikyCoeff * d * d
}

// Akinci evaluates the cohesion spline C_akinci(r) of spec.md §4.C.
func (k Kernel) Akinci(r float32) float32 {
	switch {
	case r <= 0 || r >= k.h:
		return 0
	case r >= k.hHalf:
		d := (k.h - r) * r
		return k.akinciHigh * d * d * d
	default:
		d := (k.h - r) * r
		return 2*k.akinciHigh*d*d*d - k.akinciLow
	}
}
