package optimization

import "sort"

// Objective is a named benchmark objective. Dimension is the required input
// dimension, or 0 when the function accepts any dimension.
type Objective struct {
	Name      string
	Dimension int
	Fn        ObjectiveFunction
}

// Sphere is sum(x_i^2), minimum 0 at the origin.
func Sphere(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// Sum is sum(x_i), unbounded below; only interesting inside a box.
func Sum(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum
}

// Rosenbrock is the classic banana function, minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) float64 {
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}

// Booth has minimum 0 at (1, 3). Two-dimensional only.
func Booth(x []float64) float64 {
	a := x[0] + 2*x[1] - 7
	b := 2*x[0] + x[1] - 5
	return a*a + b*b
}

// Himmelblau has four global minima of value 0. Two-dimensional only.
func Himmelblau(x []float64) float64 {
	a := x[0]*x[0] + x[1] - 11
	b := x[0] + x[1]*x[1] - 7
	return a*a + b*b
}

var catalog = map[string]Objective{
	"sphere":     {Name: "sphere", Dimension: 0, Fn: Sphere},
	"sum":        {Name: "sum", Dimension: 0, Fn: Sum},
	"rosenbrock": {Name: "rosenbrock", Dimension: 0, Fn: Rosenbrock},
	"booth":      {Name: "booth", Dimension: 2, Fn: Booth},
	"himmelblau": {Name: "himmelblau", Dimension: 2, Fn: Himmelblau},
}

// LookupObjective returns the named benchmark objective from the catalog.
func LookupObjective(name string) (Objective, bool) {
	obj, ok := catalog[name]
	return obj, ok
}

// ObjectiveNames returns the catalog names in sorted order.
func ObjectiveNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
