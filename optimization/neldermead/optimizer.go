// Package neldermead implements derivative-free minimization of a
// real-valued function of several real variables using the Nelder-Mead
// simplex method, optionally constrained to an axis-aligned box.
package neldermead

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"

	"golang.org/x/exp/rand"

	"github.com/optkit/simplexd/optimization"
)

// Config contains configuration for a Nelder-Mead run.
type Config struct {
	// Objective is the function being minimized.
	Objective optimization.ObjectiveFunction

	// InitialPoint is the center of the randomized initial simplex. Its
	// length fixes the dimension of the run and must be at least 1.
	InitialPoint []float64

	// InitialRadius controls the spread of the initial simplex; every
	// coordinate of every initial vertex is perturbed by a uniform draw
	// from (-InitialRadius, InitialRadius). Must be positive.
	InitialRadius float64

	// Params are the four move coefficients. The zero value selects
	// DefaultParams.
	Params Params

	// Bounds constrains the feasible region. The zero value selects
	// Unbounded(len(InitialPoint)).
	Bounds Bounds

	// MaxIterations is the fixed iteration budget, applied
	// unconditionally: there is no early-exit convergence test. Zero
	// returns the initial simplex's best/centroid comparison untouched.
	MaxIterations int

	// RandomSeed seeds the initial simplex perturbation for reproducible
	// runs. Zero draws a seed from the OS entropy source.
	RandomSeed uint64

	// ClampShrink also clips shrink candidates into Bounds. Off by
	// default: the classic formulation generates shrink points straight
	// from the best vertex without a bounds pass, so reflected, expanded
	// and contracted candidates are clamped but shrunk ones are not.
	ClampShrink bool
}

// NelderMead is a derivative-free simplex optimizer. It implements
// optimization.Optimizer.
type NelderMead struct {
	config Config

	// Random number source for initial simplex construction
	src rand.Source

	// Best solution found
	bestSolution *optimization.Solution

	// History of per-iteration bests
	history []optimization.Evaluation

	// For cancellation
	cancel context.CancelFunc
}

// New creates a new Nelder-Mead optimizer, validating the caller contract:
// a non-nil objective, dimension >= 1, a positive radius, bounds matching
// the dimension with min <= max per coordinate, and a non-negative
// iteration budget.
func New(config Config) (*NelderMead, error) {
	if config.Objective == nil {
		return nil, optimization.NewValidationErrorf("objective function is required").
			WithComponent("neldermead")
	}
	if len(config.InitialPoint) < 1 {
		return nil, optimization.NewValidationErrorf("initial point must have dimension >= 1").
			WithComponent("neldermead")
	}
	if config.InitialRadius <= 0 {
		return nil, optimization.NewValidationErrorf("initial radius must be positive, got %v", config.InitialRadius).
			WithComponent("neldermead")
	}
	if config.MaxIterations < 0 {
		return nil, optimization.NewValidationErrorf("max iterations must be non-negative, got %d", config.MaxIterations).
			WithComponent("neldermead")
	}

	if config.Params == (Params{}) {
		config.Params = DefaultParams()
	}
	if config.Bounds.Min == nil && config.Bounds.Max == nil {
		config.Bounds = Unbounded(len(config.InitialPoint))
	}
	if err := config.Bounds.validate(len(config.InitialPoint)); err != nil {
		return nil, err
	}

	seed := config.RandomSeed
	if seed == 0 {
		var buf [8]byte
		if _, err := crand.Read(buf[:]); err != nil {
			return nil, optimization.NewEntropyError(err).
				WithOperation("seed initial simplex").
				WithComponent("neldermead")
		}
		seed = binary.LittleEndian.Uint64(buf[:])
	}

	return &NelderMead{
		config:  config,
		src:     rand.NewSource(seed),
		history: make([]optimization.Evaluation, 0, config.MaxIterations),
	}, nil
}

// Optimize runs the fixed-iteration simplex loop. The context is checked
// between iterations, so a cancelled run returns ctx.Err() without a result.
func (nm *NelderMead) Optimize(ctx context.Context) (*optimization.Result, error) {
	ctx, nm.cancel = context.WithCancel(ctx)
	defer nm.cancel()

	f := nm.config.Objective
	s := newSimplex(f, nm.config.InitialPoint, nm.config.InitialRadius, nm.src)

	for i := 0; i < nm.config.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		s = step(f, s, nm.config.Params, nm.config.Bounds, nm.config.ClampShrink)
		nm.observe(i+1, s[0])
	}

	// A degenerate simplex can leave the centroid of the n best vertices
	// below the nominal best vertex; return whichever is lower.
	n := len(s) - 1
	center := centroid(s.points(n))
	fCenter := f(center)

	best := &optimization.Solution{
		Parameters: append([]float64(nil), s[0].point...),
		Value:      s[0].value,
	}
	if fCenter <= best.Value {
		best = &optimization.Solution{Parameters: center, Value: fCenter}
	}
	nm.bestSolution = best

	return &optimization.Result{
		BestSolution: best,
		Iterations:   nm.config.MaxIterations,
		History:      nm.history,
	}, nil
}

// BestSolution returns the best solution found so far.
func (nm *NelderMead) BestSolution() *optimization.Solution {
	return nm.bestSolution
}

// Stop stops the optimization process.
func (nm *NelderMead) Stop() {
	if nm.cancel != nil {
		nm.cancel()
	}
}

// observe records the best vertex after an iteration and updates the
// running best solution.
func (nm *NelderMead) observe(iteration int, v vertex) {
	best := optimization.Solution{
		Parameters: append([]float64(nil), v.point...),
		Value:      v.value,
	}
	nm.history = append(nm.history, optimization.Evaluation{
		Iteration: iteration,
		Best:      best,
	})
	if nm.bestSolution == nil || best.Value < nm.bestSolution.Value {
		nm.bestSolution = &best
	}
}
