// Package greeks computes European Black-Scholes sensitivities for index options.
//
// The model is deliberately narrow: no dividend yield, a fixed risk-free rate and
// call-side orientation. Put candidates are evaluated on the same numbers with the
// scorer taking absolute values of delta and vega; callers that need textbook put
// Greeks must not use this package.
package greeks

import (
	"math"

	"github.com/wonny/optsignals/internal/contracts"
)

const (
	// RiskFreeRate is the annual continuously-compounded rate used by every computation
	RiskFreeRate = 0.05

	// DefaultTimeToExpiry is roughly ten trading days, the weekly-expiry horizon
	DefaultTimeToExpiry = 0.038

	// TradingDaysPerYear converts annual theta into per-day decay
	TradingDaysPerYear = 252

	sqrt2Pi = 2.5066282746310002
)

// Compute returns delta, gamma, theta and vega for the given inputs.
//
// Non-positive spot, strike, volatility or time, and any non-finite intermediate,
// yield the zero Greeks instead of an error so downstream gates simply fail.
// Results are rounded: delta/theta/vega to 4 places, gamma to 6.
func Compute(spot, strike, iv, t float64) contracts.Greeks {
	if t <= 0 || iv <= 0 || spot <= 0 || strike <= 0 {
		return contracts.Greeks{}
	}

	raw, ok := compute(spot, strike, iv, t)
	if !ok {
		return contracts.Greeks{}
	}

	return contracts.Greeks{
		Delta: round(raw.Delta, 4),
		Gamma: round(raw.Gamma, 6),
		Theta: round(raw.Theta, 4),
		Vega:  round(raw.Vega, 4),
	}
}

// ComputeDefault is Compute with DefaultTimeToExpiry
func ComputeDefault(spot, strike, iv float64) contracts.Greeks {
	return Compute(spot, strike, iv, DefaultTimeToExpiry)
}

// compute evaluates the closed form at full precision
func compute(s, k, sigma, t float64) (contracts.Greeks, bool) {
	sqrtT := math.Sqrt(t)
	volSqrtT := sigma * sqrtT

	d1 := (math.Log(s/k) + (RiskFreeRate+0.5*sigma*sigma)*t) / volSqrtT
	d2 := d1 - volSqrtT

	pdf := normPDF(d1)

	g := contracts.Greeks{
		Delta: normCDF(d1),
		Gamma: pdf / (s * volSqrtT),
		Vega:  s * pdf * sqrtT / 100, // per 1 vol point
		Theta: (-s*pdf*sigma/(2*sqrtT) - RiskFreeRate*k*math.Exp(-RiskFreeRate*t)*normCDF(d2)) / TradingDaysPerYear,
	}

	for _, v := range []float64{g.Delta, g.Gamma, g.Theta, g.Vega} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return contracts.Greeks{}, false
		}
	}
	return g, true
}

// normPDF is the standard normal density
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// normCDF is the standard normal cumulative distribution via erf
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
