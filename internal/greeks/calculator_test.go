package greeks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/optsignals/internal/contracts"
)

func TestCompute_ATMReference(t *testing.T) {
	g := Compute(20000, 20000, 0.25, DefaultTimeToExpiry)

	// 독립 Black-Scholes 계산값 기준 (1e-3 허용)
	assert.InDelta(t, 0.5253, g.Delta, 1e-3)
	assert.InDelta(t, 0.000408, g.Gamma, 1e-6)
	assert.InDelta(t, -22.2656, g.Theta, 1e-3)
	assert.InDelta(t, 15.5225, g.Vega, 1e-3)

	assert.Greater(t, g.Gamma, 0.0)
	assert.Greater(t, g.Vega, 0.0)
	assert.Less(t, g.Theta, 0.0)
}

func TestCompute_Table(t *testing.T) {
	tests := []struct {
		name                string
		spot, strike, iv, t float64
		want                contracts.Greeks
	}{
		{"itm call", 20000, 19950, 0.22, DefaultTimeToExpiry, contracts.Greeks{Delta: 0.5494, Gamma: 0.000462, Theta: -19.8328, Vega: 15.4343}},
		{"small underlying", 100, 100, 0.25, DefaultTimeToExpiry, contracts.Greeks{Delta: 0.5253, Gamma: 0.081697, Theta: -0.1113, Vega: 0.0776}},
		{"deep itm", 100, 95, 0.30, DefaultTimeToExpiry, contracts.Greeks{Delta: 0.8261, Gamma: 0.043904, Theta: -0.0937, Vega: 0.0501}},
		{"longer expiry", 20000, 20000, 0.25, 0.1, contracts.Greeks{Delta: 0.5409, Gamma: 0.000251, Theta: -14.4612, Vega: 25.0984}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.spot, tt.strike, tt.iv, tt.t)
			assert.InDelta(t, tt.want.Delta, got.Delta, 1e-4)
			assert.InDelta(t, tt.want.Gamma, got.Gamma, 1e-6)
			assert.InDelta(t, tt.want.Theta, got.Theta, 1e-4)
			assert.InDelta(t, tt.want.Vega, got.Vega, 1e-4)
		})
	}
}

func TestCompute_Degenerate(t *testing.T) {
	tests := []struct {
		name                string
		spot, strike, iv, t float64
	}{
		{"zero spot", 0, 20000, 0.25, 0.038},
		{"negative spot", -1, 20000, 0.25, 0.038},
		{"zero strike", 20000, 0, 0.25, 0.038},
		{"zero iv", 20000, 20000, 0, 0.038},
		{"negative iv", 20000, 20000, -0.2, 0.038},
		{"zero time", 20000, 20000, 0.25, 0},
		{"negative time", 20000, 20000, 0.25, -1},
		{"nan spot", math.NaN(), 20000, 0.25, 0.038},
		{"infinite strike", 20000, math.Inf(1), 0.25, 0.038},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.spot, tt.strike, tt.iv, tt.t)
			assert.True(t, got.IsZero(), "expected zero greeks, got %+v", got)
		})
	}
}

func TestComputeDefault(t *testing.T) {
	assert.Equal(t, Compute(20000, 20000, 0.25, DefaultTimeToExpiry), ComputeDefault(20000, 20000, 0.25))
	assert.True(t, ComputeDefault(0, 20000, 0.25).IsZero())
}

func TestCompute_Rounding(t *testing.T) {
	g := Compute(20000, 20000, 0.25, DefaultTimeToExpiry)

	assert.Equal(t, g.Delta, round(g.Delta, 4))
	assert.Equal(t, g.Theta, round(g.Theta, 4))
	assert.Equal(t, g.Vega, round(g.Vega, 4))
	assert.Equal(t, g.Gamma, round(g.Gamma, 6))
}

func TestNormCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normCDF(0), 1e-12)
	assert.InDelta(t, 0.975, normCDF(1.959964), 1e-6)
	assert.InDelta(t, 1.0, normCDF(0)+normCDF(-0), 1e-12)
	assert.InDelta(t, 1/sqrt2Pi, normPDF(0), 1e-12)
}
