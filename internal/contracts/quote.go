package contracts

import "time"

// OptionSide identifies the call (CE) or put (PE) leg of a strike
type OptionSide string

const (
	SideCall OptionSide = "CE"
	SidePut  OptionSide = "PE"
)

// DataSource tags where a snapshot came from
type DataSource string

const (
	SourceLive      DataSource = "ZERODHA_LIVE"
	SourceSimulated DataSource = "SIMULATED"
)

// Snapshot is one option-chain observation for an index
// ⭐ SSOT: 데이터 수집 → 스코어러 전달 구조체
type Snapshot struct {
	Symbol  string        `json:"symbol"`
	Spot    float64       `json:"spot"`
	Strikes []StrikeQuote `json:"strikes"`
	Source  DataSource    `json:"data_source"`

	// TimeToExpiry in years. Zero means the engine default.
	TimeToExpiry float64   `json:"time_to_expiry,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// StrikeQuote holds both legs of a single strike
type StrikeQuote struct {
	Strike float64   `json:"strike"`
	Call   SideQuote `json:"ce"`
	Put    SideQuote `json:"pe"`
}

// SideQuote is the market data of one option contract.
// OpenInterest == 0 means there is no market for the leg.
type SideQuote struct {
	LastPrice         float64 `json:"ltp"`
	OpenInterest      int64   `json:"oi"`
	ImpliedVolatility float64 `json:"iv"` // fraction, 0.25 = 25%
	Volume            int64   `json:"volume"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
}

// Leg returns the quote for the given side
func (s StrikeQuote) Leg(side OptionSide) SideQuote {
	if side == SidePut {
		return s.Put
	}
	return s.Call
}

// HasStrikes reports whether the snapshot carries anything to score
func (s *Snapshot) HasStrikes() bool {
	return s != nil && len(s.Strikes) > 0
}
