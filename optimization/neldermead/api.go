package neldermead

import (
	"context"

	"github.com/optkit/simplexd/optimization"
)

// Minimize runs Nelder-Mead minimization of f inside bounds, starting from a
// randomized simplex of the given radius around initialPoint, for exactly
// maxIter iterations.
func Minimize(f optimization.ObjectiveFunction, initialPoint []float64, initialRadius float64, params Params, bounds Bounds, maxIter int) (*optimization.Solution, error) {
	nm, err := New(Config{
		Objective:     f,
		InitialPoint:  initialPoint,
		InitialRadius: initialRadius,
		Params:        params,
		Bounds:        bounds,
		MaxIterations: maxIter,
	})
	if err != nil {
		return nil, err
	}
	result, err := nm.Optimize(context.Background())
	if err != nil {
		return nil, err
	}
	return result.BestSolution, nil
}

// Maximize runs Nelder-Mead maximization of f inside bounds. It minimizes
// the negated objective and flips the sign of the returned value back; the
// returned point is unchanged.
func Maximize(f optimization.ObjectiveFunction, initialPoint []float64, initialRadius float64, params Params, bounds Bounds, maxIter int) (*optimization.Solution, error) {
	solution, err := Minimize(optimization.Negate(f), initialPoint, initialRadius, params, bounds, maxIter)
	if err != nil {
		return nil, err
	}
	solution.Value = -solution.Value
	return solution, nil
}

// MinimizeUnbounded is Minimize with bounds spanning the full representable
// range in every dimension.
func MinimizeUnbounded(f optimization.ObjectiveFunction, initialPoint []float64, initialRadius float64, params Params, maxIter int) (*optimization.Solution, error) {
	return Minimize(f, initialPoint, initialRadius, params, Unbounded(len(initialPoint)), maxIter)
}

// MaximizeUnbounded is Maximize with bounds spanning the full representable
// range in every dimension.
func MaximizeUnbounded(f optimization.ObjectiveFunction, initialPoint []float64, initialRadius float64, params Params, maxIter int) (*optimization.Solution, error) {
	return Maximize(f, initialPoint, initialRadius, params, Unbounded(len(initialPoint)), maxIter)
}
