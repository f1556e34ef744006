package workload

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// polynomial holds least-squares fitted coefficients, lowest order first.
type polynomial struct {
	coeffs []float64
}

// fitPolynomial fits a polynomial of the given degree through the sample
// points by ordinary least squares on the Vandermonde matrix.
func fitPolynomial(xs, ys []float64, degree int) (polynomial, error) {
	if len(xs) != len(ys) {
		return polynomial{}, fmt.Errorf("fitPolynomial: %d x values for %d y values", len(xs), len(ys))
	}
	if len(xs) < degree+1 {
		return polynomial{}, fmt.Errorf("fitPolynomial: need at least %d points for degree %d, got %d", degree+1, degree, len(xs))
	}

	a := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		p := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, p)
			p *= x
		}
	}
	b := mat.NewVecDense(len(ys), ys)

	var qr mat.QR
	qr.Factorize(a)
	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, b); err != nil {
		return polynomial{}, fmt.Errorf("fitPolynomial: %w", err)
	}

	coeffs := make([]float64, degree+1)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
	}
	return polynomial{coeffs: coeffs}, nil
}

// eval evaluates the polynomial at x using Horner's scheme.
func (p polynomial) eval(x float64) float64 {
	v := 0.0
	for j := len(p.coeffs) - 1; j >= 0; j-- {
		v = v*x + p.coeffs[j]
	}
	return v
}
