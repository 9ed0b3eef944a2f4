package neldermead

import (
	"math"

	"github.com/optkit/simplexd/optimization"
)

// Bounds is an axis-aligned box constraining the feasible region.
// The zero value means "unbounded"; callers must otherwise ensure
// Min and Max have the run's dimension and Min[i] <= Max[i].
type Bounds struct {
	Min []float64
	Max []float64
}

// Unbounded returns Bounds spanning the full representable range in each of
// n dimensions, the "no constraint" sentinel.
func Unbounded(n int) Bounds {
	min := make([]float64, n)
	max := make([]float64, n)
	for i := range min {
		min[i] = -math.MaxFloat64
		max[i] = math.MaxFloat64
	}
	return Bounds{Min: min, Max: max}
}

// Clamp returns a copy of p with every coordinate clipped into the box.
func (b Bounds) Clamp(p []float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = math.Min(math.Max(v, b.Min[i]), b.Max[i])
	}
	return out
}

func (b Bounds) validate(dim int) error {
	if len(b.Min) != dim || len(b.Max) != dim {
		return optimization.NewValidationErrorf(
			"bounds dimensions %d/%d do not match point dimension %d",
			len(b.Min), len(b.Max), dim,
		).WithComponent("neldermead")
	}
	for i := range b.Min {
		if b.Min[i] > b.Max[i] {
			return optimization.NewValidationErrorf(
				"bounds min %v exceeds max %v in dimension %d",
				b.Min[i], b.Max[i], i,
			).WithComponent("neldermead")
		}
	}
	return nil
}
