package handlers

import (
	"net/http"

	"github.com/wonny/optsignals/internal/greeks"
)

// GetGreeks evaluates the Black-Scholes Greeks for diagnostics
// GET /api/greeks?spot=20000&strike=20000&iv=0.25&t=0.038
func GetGreeks(w http.ResponseWriter, r *http.Request) {
	inputs := make(map[string]float64, 3)
	for _, key := range []string{"spot", "strike", "iv"} {
		v, ok, err := queryFloat(r, key)
		if err != nil || !ok {
			respondError(w, http.StatusBadRequest, key+" is required and must be a number")
			return
		}
		inputs[key] = v
	}

	t, ok, err := queryFloat(r, "t")
	if err != nil {
		respondError(w, http.StatusBadRequest, "t must be a number")
		return
	}
	if !ok {
		t = greeks.DefaultTimeToExpiry
	}

	g := greeks.Compute(inputs["spot"], inputs["strike"], inputs["iv"], t)

	respondJSON(w, http.StatusOK, map[string]float64{
		"spot":   inputs["spot"],
		"strike": inputs["strike"],
		"iv":     inputs["iv"],
		"t":      t,
		"delta":  g.Delta,
		"gamma":  g.Gamma,
		"theta":  g.Theta,
		"vega":   g.Vega,
	})
}
