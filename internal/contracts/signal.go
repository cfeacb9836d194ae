package contracts

import (
	"fmt"
	"time"
)

// Signal is a STRONG BUY recommendation for one strike and side.
// JSON field names match what the dashboard consumes.
type Signal struct {
	Symbol      string     `json:"symbol"`
	Timestamp   string     `json:"timestamp"` // HH:MM:SS UTC
	GeneratedAt time.Time  `json:"generated_at"`
	OptionType  OptionSide `json:"option_type"`
	Strike      float64    `json:"strike"`

	Vega  float64 `json:"vega"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Delta float64 `json:"delta"`

	OpenInterest      int64   `json:"oi"`
	ImpliedVolatility float64 `json:"iv"`
	OptionLastPrice   float64 `json:"ltp_option"`

	Side       string     `json:"side"`
	Confidence float64    `json:"confidence"`
	Spot       float64    `json:"ltp"`
	DataSource DataSource `json:"data_source"`
}

// SignalLabel returns the side label for an option type
func SignalLabel(side OptionSide) string {
	return fmt.Sprintf("STRONG BUY %s", side)
}

// Greeks returns the four sensitivities carried by the signal
func (s *Signal) Greeks() Greeks {
	return Greeks{Delta: s.Delta, Gamma: s.Gamma, Theta: s.Theta, Vega: s.Vega}
}
