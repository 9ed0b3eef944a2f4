package neldermead

// Params holds the four Nelder-Mead move coefficients. No validation is
// performed; nonsensical combinations (e.g. Gamma < Alpha) yield
// mathematically valid but poorly converging runs.
type Params struct {
	// Alpha is the reflection coefficient.
	Alpha float64
	// Gamma is the expansion coefficient.
	Gamma float64
	// Rho is the contraction coefficient.
	Rho float64
	// Delta is the shrink coefficient.
	Delta float64
}

// DefaultParams returns the conventional coefficients.
func DefaultParams() Params {
	return Params{Alpha: 1.0, Gamma: 2.0, Rho: 0.5, Delta: 0.5}
}
