package neldermead

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/optkit/simplexd/optimization"
)

// vertex pairs a point with its objective value. Vertices are recomputed,
// never mutated in place.
type vertex struct {
	point []float64
	value float64
}

// simplex is an ordered set of n+1 vertices in n dimensions, kept sorted
// ascending by value: s[0] is the best vertex, s[n] the worst. Every
// operation below re-sorts before returning, so no caller ever observes an
// unsorted simplex.
type simplex []vertex

func sortSimplex(s simplex) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].value < s[j].value })
}

// newSimplex builds the initial simplex by adding an independent uniform
// draw from (-radius, radius) to every coordinate of center, evaluating each
// candidate under f.
func newSimplex(f optimization.ObjectiveFunction, center []float64, radius float64, src rand.Source) simplex {
	perturb := distuv.Uniform{Min: -radius, Max: radius, Src: src}
	s := make(simplex, 0, len(center)+1)
	for i := 0; i <= len(center); i++ {
		p := make([]float64, len(center))
		for j, c := range center {
			p[j] = c + perturb.Rand()
		}
		s = append(s, vertex{point: p, value: f(p)})
	}
	sortSimplex(s)
	return s
}

// accept inserts v, re-sorts, and drops the single worst vertex, yielding a
// new simplex of the same size. The receiver is left untouched.
func (s simplex) accept(v vertex) simplex {
	next := make(simplex, len(s), len(s)+1)
	copy(next, s)
	next = append(next, v)
	sortSimplex(next)
	return next[:len(s)]
}

// points returns the positions of the n best vertices.
func (s simplex) points(n int) [][]float64 {
	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = s[i].point
	}
	return pts
}

// step applies one reflect/expand/contract/shrink decision, in that priority
// order, and returns the resulting simplex. It is a pure function of its
// inputs: the same simplex, params and bounds always produce the same result.
func step(f optimization.ObjectiveFunction, s simplex, params Params, bounds Bounds, clampShrink bool) simplex {
	n := len(s) - 1
	best := s[0]
	worst := s[n]
	secondWorst := s[n-1]
	center := centroid(s.points(n))

	reflected := bounds.Clamp(sum(center, scale(params.Alpha, diff(center, worst.point))))
	fr := f(reflected)
	expanded := bounds.Clamp(sum(center, scale(params.Gamma, diff(reflected, center))))
	fe := f(expanded)
	contracted := bounds.Clamp(sum(center, scale(params.Rho, diff(worst.point, center))))
	fc := f(contracted)

	switch {
	case best.value <= fr && fr < secondWorst.value:
		return s.accept(vertex{point: reflected, value: fr})
	case fe < worst.value:
		// The expanded point is compared against the reflected one,
		// not against the incumbent best.
		if fe < fr {
			return s.accept(vertex{point: expanded, value: fe})
		}
		return s.accept(vertex{point: reflected, value: fr})
	case fc < worst.value:
		return s.accept(vertex{point: contracted, value: fc})
	default:
		return s.shrink(f, params.Delta, bounds, clampShrink)
	}
}

// shrink rebuilds the simplex by pulling every vertex except the best toward
// it, re-evaluating each. Shrink candidates are generated straight from the
// best vertex without a bounds pass; clampShrink opts into clamping them.
func (s simplex) shrink(f optimization.ObjectiveFunction, delta float64, bounds Bounds, clampShrink bool) simplex {
	best := s[0]
	next := make(simplex, 0, len(s))
	for _, v := range s[1:] {
		p := sum(best.point, scale(delta, diff(v.point, best.point)))
		if clampShrink {
			p = bounds.Clamp(p)
		}
		next = append(next, vertex{point: p, value: f(p)})
	}
	next = append(next, best)
	sortSimplex(next)
	return next
}
