package scoring

import "github.com/wonny/optsignals/internal/contracts"

// Candidate is one evaluated (strike, side) pair
type Candidate struct {
	Strike     float64              `json:"strike"`
	Side       contracts.OptionSide `json:"option_type"`
	Quote      contracts.SideQuote  `json:"quote"`
	Greeks     contracts.Greeks     `json:"greeks"`
	Gates      GateResult           `json:"gates"`
	Confidence float64              `json:"confidence"` // zero unless every gate passed
	Qualified  bool                 `json:"qualified"`
}

// GateResult records each of the six hard gates
type GateResult struct {
	Vega  bool `json:"vega"`
	Gamma bool `json:"gamma"`
	Theta bool `json:"theta"`
	Delta bool `json:"delta"`
	OI    bool `json:"oi"`
	IV    bool `json:"iv"`
}

// Passed reports whether all gates hold
func (g GateResult) Passed() bool {
	return g.Vega && g.Gamma && g.Theta && g.Delta && g.OI && g.IV
}

// Failed lists the names of failing gates
func (g GateResult) Failed() []string {
	var out []string
	for _, gate := range []struct {
		name string
		ok   bool
	}{
		{"vega", g.Vega},
		{"gamma", g.Gamma},
		{"theta", g.Theta},
		{"delta", g.Delta},
		{"oi", g.OI},
		{"iv", g.IV},
	} {
		if !gate.ok {
			out = append(out, gate.name)
		}
	}
	return out
}
