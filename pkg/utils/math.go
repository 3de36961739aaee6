package utils

import (
	"math"
)

// Clamp clamps a value between min and max
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RunningMax returns the best-so-far curve of values
func RunningMax(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i > 0 && out[i-1] > v {
			v = out[i-1]
		}
		out[i] = v
	}
	return out
}

// SquaredDistance returns the squared euclidean distance between a and b
func SquaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// AlmostEqual reports whether a and b differ by at most tol
func AlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
