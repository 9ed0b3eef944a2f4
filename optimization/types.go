// Package optimization defines the shared types and error taxonomy used by
// the simplexd optimizers.
package optimization

import "context"

// ObjectiveFunction maps a point in R^n to the scalar being minimized.
// Implementations must be pure functions of their input for runs to be
// reproducible; purity is not enforced.
type ObjectiveFunction func(x []float64) float64

// Negate wraps f with a sign inversion, so that minimizing the wrapper
// maximizes f.
func Negate(f ObjectiveFunction) ObjectiveFunction {
	return func(x []float64) float64 {
		return -f(x)
	}
}

// Optimizer defines the interface for optimization algorithms
type Optimizer interface {
	// Optimize runs the optimization process
	Optimize(ctx context.Context) (*Result, error)

	// BestSolution returns the best solution found so far
	BestSolution() *Solution

	// Stop gracefully stops the optimization process
	Stop()
}

// Solution represents a solution in the optimization space
type Solution struct {
	Parameters []float64
	Value      float64
}

// Evaluation records the best solution known after a given iteration
type Evaluation struct {
	Iteration int
	Best      Solution
}

// Result contains the result of an optimization run
type Result struct {
	BestSolution *Solution
	Iterations   int
	History      []Evaluation
}
