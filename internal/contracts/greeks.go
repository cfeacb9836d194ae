package contracts

// Greeks are the Black-Scholes sensitivities of one option contract
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// IsZero reports the degenerate all-zero result
func (g Greeks) IsZero() bool {
	return g == Greeks{}
}
