package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/optkit/simplexd/optimization"
	"github.com/optkit/simplexd/optimization/neldermead"
)

var (
	runObjective   string
	runPoint       string
	runRadius      float64
	runIters       int
	runSeed        uint64
	runMaximize    bool
	runBoundsMin   string
	runBoundsMax   string
	runClampShrink bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization of a benchmark objective",
	Long: `Runs the Nelder-Mead simplex method on one of the built-in benchmark
objectives and prints the best point found.

Available objectives: ` + strings.Join(optimization.ObjectiveNames(), ", ") + `.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runObjective, "objective", "", "Benchmark objective name (required)")
	runCmd.Flags().StringVar(&runPoint, "point", "", "Comma-separated initial point, e.g. 1,2.5,0 (required)")
	runCmd.Flags().Float64Var(&runRadius, "radius", 1.0, "Initial simplex radius")
	runCmd.Flags().IntVar(&runIters, "iters", 1000, "Iteration budget")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Random seed (0 draws one from the OS)")
	runCmd.Flags().BoolVar(&runMaximize, "maximize", false, "Maximize instead of minimize")
	runCmd.Flags().StringVar(&runBoundsMin, "min", "", "Comma-separated lower bounds")
	runCmd.Flags().StringVar(&runBoundsMax, "max", "", "Comma-separated upper bounds")
	runCmd.Flags().BoolVar(&runClampShrink, "clamp-shrink", false, "Also clamp shrink candidates into bounds")

	runCmd.MarkFlagRequired("objective")
	runCmd.MarkFlagRequired("point")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	obj, ok := optimization.LookupObjective(runObjective)
	if !ok {
		return fmt.Errorf("unknown objective %q, available: %s",
			runObjective, strings.Join(optimization.ObjectiveNames(), ", "))
	}

	point, err := parseVector(runPoint)
	if err != nil {
		return fmt.Errorf("invalid --point: %w", err)
	}
	if obj.Dimension != 0 && len(point) != obj.Dimension {
		return fmt.Errorf("objective %q needs dimension %d, got %d",
			obj.Name, obj.Dimension, len(point))
	}

	bounds := neldermead.Unbounded(len(point))
	if runBoundsMin != "" || runBoundsMax != "" {
		if bounds.Min, err = parseVector(runBoundsMin); err != nil {
			return fmt.Errorf("invalid --min: %w", err)
		}
		if bounds.Max, err = parseVector(runBoundsMax); err != nil {
			return fmt.Errorf("invalid --max: %w", err)
		}
	}

	f := obj.Fn
	if runMaximize {
		f = optimization.Negate(f)
	}

	nm, err := neldermead.New(neldermead.Config{
		Objective:     f,
		InitialPoint:  point,
		InitialRadius: runRadius,
		Bounds:        bounds,
		MaxIterations: runIters,
		RandomSeed:    runSeed,
		ClampShrink:   runClampShrink,
	})
	if err != nil {
		return err
	}

	logger.Info("starting optimization", map[string]interface{}{
		"objective": obj.Name,
		"dimension": len(point),
		"iters":     runIters,
		"maximize":  runMaximize,
	})

	start := time.Now()
	result, err := nm.Optimize(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	value := result.BestSolution.Value
	if runMaximize {
		value = -value
	}

	logger.Info("optimization complete", map[string]interface{}{
		"elapsed": elapsed.String(),
		"value":   value,
	})

	fmt.Printf("objective: %s\n", obj.Name)
	fmt.Printf("best point: %v\n", result.BestSolution.Parameters)
	fmt.Printf("best value: %g\n", value)
	fmt.Printf("iterations: %d (%.3fs)\n", result.Iterations, elapsed.Seconds())

	return nil
}

// parseVector parses a comma-separated list of floats.
func parseVector(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
