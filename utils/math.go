// Package utils contains numeric helpers and goroutine lifecycle utilities shared by the planner packages.
package utils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// NormalizeAngle wraps an angle in radians into [-pi, pi).
func NormalizeAngle(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// ShortestAngularDistance returns the signed angle that rotates `from` onto `to` by the shortest way.
func ShortestAngularDistance(from, to float64) float64 {
	return NormalizeAngle(to - from)
}

// Square is faster than math.Pow(n, 2).
func Square(n float64) float64 {
	return n * n
}

// MaxInt returns the larger of two ints.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of two ints.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// AbsInt returns |n|.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Linspace returns n evenly spaced values from lo to hi inclusive, along with the spacing between
// them. A single sample is lo with zero spacing; n <= 0 yields no samples.
func Linspace(lo, hi float64, n int) ([]float64, float64) {
	switch {
	case n <= 0:
		return nil, 0
	case n == 1:
		return []float64{lo}, 0
	}
	return floats.Span(make([]float64, n), lo, hi), (hi - lo) / float64(n-1)
}
