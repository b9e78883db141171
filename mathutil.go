package solver

import "math"

func sqrtf(v float32) float32 { return float32(math.Sqrt(float64(v))) }

func powf(base, exp float32) float32 { return float32(math.Pow(float64(base), float64(exp))) }
