package neldermead

import "gonum.org/v1/gonum/floats"

// Elementwise vector helpers over equal-length slices. Matching lengths are
// a caller contract; mismatched inputs panic inside gonum rather than being
// silently tolerated.

func sum(p, q []float64) []float64 {
	out := make([]float64, len(p))
	floats.AddTo(out, p, q)
	return out
}

func diff(p, q []float64) []float64 {
	out := make([]float64, len(p))
	floats.SubTo(out, p, q)
	return out
}

func scale(k float64, p []float64) []float64 {
	out := make([]float64, len(p))
	floats.ScaleTo(out, k, p)
	return out
}

// centroid returns the elementwise mean of a non-empty set of points.
func centroid(points [][]float64) []float64 {
	acc := make([]float64, len(points[0]))
	for _, p := range points {
		floats.Add(acc, p)
	}
	floats.Scale(1/float64(len(points)), acc)
	return acc
}
