package scoring

import (
	"math"
	"time"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/greeks"
	"github.com/wonny/optsignals/pkg/logger"
)

// Confidence weights. Theta only gates.
const (
	weightVega  = 0.20
	weightGamma = 0.20
	weightDelta = 0.20
	weightOI    = 0.25
	weightIV    = 0.15
)

// evaluation order inside a strike
var sides = []contracts.OptionSide{contracts.SideCall, contracts.SidePut}

// Scorer selects the best STRONG BUY candidate from a snapshot
// ⭐ SSOT: 시그널 게이트/신뢰도 계산은 여기서만
type Scorer struct {
	logger *logger.Logger
	now    func() time.Time
}

// Option configures a Scorer
type Option func(*Scorer)

// WithClock overrides the time source used to stamp signals
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// NewScorer creates a scorer. A nil logger discards output.
func NewScorer(log *logger.Logger, opts ...Option) *Scorer {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Scorer{
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score is a convenience wrapper using the wall clock and no logging
func Score(snap *contracts.Snapshot, th contracts.Thresholds) *contracts.Signal {
	return NewScorer(nil).Score(snap, th)
}

// Score returns the highest-confidence qualifying signal, or nil.
// Iteration is strikes in input order, call before put; on equal confidence the
// first candidate seen is kept.
func (s *Scorer) Score(snap *contracts.Snapshot, th contracts.Thresholds) *contracts.Signal {
	if !snap.HasStrikes() {
		return nil
	}

	best := pickBest(s.Evaluate(snap, th))
	if best == nil {
		s.logger.WithFields(map[string]interface{}{
			"symbol":  snap.Symbol,
			"strikes": len(snap.Strikes),
		}).Info("No STRONG BUY signal, criteria not met")
		return nil
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol":     snap.Symbol,
		"strike":     best.Strike,
		"side":       best.Side,
		"confidence": best.Confidence,
		"oi":         best.Quote.OpenInterest,
	}).Debug("Best candidate selected")

	signal := s.buildSignal(snap, best)

	s.logger.WithFields(map[string]interface{}{
		"symbol":      signal.Symbol,
		"option_type": signal.OptionType,
		"strike":      signal.Strike,
		"confidence":  signal.Confidence,
		"data_source": signal.DataSource,
	}).Info("STRONG BUY signal")

	return signal
}

// Evaluate computes every (strike, side) candidate with its gate outcome.
// Sides without open interest are omitted.
func (s *Scorer) Evaluate(snap *contracts.Snapshot, th contracts.Thresholds) []Candidate {
	if !snap.HasStrikes() {
		return nil
	}

	t := snap.TimeToExpiry
	if t <= 0 {
		t = greeks.DefaultTimeToExpiry
	}

	candidates := make([]Candidate, 0, len(snap.Strikes)*len(sides))
	for _, sq := range snap.Strikes {
		for _, side := range sides {
			quote := sq.Leg(side)
			if quote.OpenInterest <= 0 {
				continue
			}

			g := greeks.Compute(snap.Spot, sq.Strike, quote.ImpliedVolatility, t)
			c := Candidate{
				Strike: sq.Strike,
				Side:   side,
				Quote:  quote,
				Greeks: g,
				Gates:  checkGates(g, quote, th),
			}
			if c.Gates.Passed() {
				c.Confidence = confidence(g, quote, th)
				c.Qualified = c.Confidence >= th.ConfidenceMin
			}
			if c.Qualified {
				s.logger.WithFields(map[string]interface{}{
					"symbol":     snap.Symbol,
					"strike":     c.Strike,
					"side":       c.Side,
					"confidence": c.Confidence,
					"oi":         quote.OpenInterest,
				}).Debug("Qualified candidate")
			}
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// pickBest keeps the first qualified candidate with strictly greater
// confidence than every earlier one. The running best starts at zero.
func pickBest(candidates []Candidate) *Candidate {
	var best *Candidate
	bestConfidence := 0.0
	for i := range candidates {
		c := &candidates[i]
		if c.Qualified && c.Confidence > bestConfidence {
			best = c
			bestConfidence = c.Confidence
		}
	}
	return best
}

func (s *Scorer) buildSignal(snap *contracts.Snapshot, c *Candidate) *contracts.Signal {
	now := s.now().UTC()
	return &contracts.Signal{
		Symbol:            snap.Symbol,
		Timestamp:         now.Format("15:04:05"),
		GeneratedAt:       now,
		OptionType:        c.Side,
		Strike:            c.Strike,
		Vega:              c.Greeks.Vega,
		Gamma:             c.Greeks.Gamma,
		Theta:             c.Greeks.Theta,
		Delta:             c.Greeks.Delta,
		OpenInterest:      c.Quote.OpenInterest,
		ImpliedVolatility: c.Quote.ImpliedVolatility,
		OptionLastPrice:   c.Quote.LastPrice,
		Side:              contracts.SignalLabel(c.Side),
		Confidence:        c.Confidence,
		Spot:              math.Round(snap.Spot*100) / 100,
		DataSource:        snap.Source,
	}
}

// checkGates applies the six hard gates. Delta and vega are compared by
// magnitude so put candidates reuse the call-oriented Greeks.
func checkGates(g contracts.Greeks, q contracts.SideQuote, th contracts.Thresholds) GateResult {
	return GateResult{
		Vega:  math.Abs(g.Vega) >= th.VegaMin,
		Gamma: g.Gamma >= th.GammaMin,
		Theta: g.Theta <= th.ThetaMax,
		Delta: math.Abs(g.Delta) >= th.DeltaMin,
		OI:    q.OpenInterest >= th.OIMin,
		IV:    q.ImpliedVolatility >= th.IVMin,
	}
}

// confidence is the weighted sum of capped sub-scores, rounded to 2 places
func confidence(g contracts.Greeks, q contracts.SideQuote, th contracts.Thresholds) float64 {
	score := subScore(math.Abs(g.Vega), th.VegaMin)*weightVega +
		subScore(g.Gamma, th.GammaMin)*weightGamma +
		subScore(math.Abs(g.Delta), th.DeltaMin)*weightDelta +
		subScore(float64(q.OpenInterest), float64(th.OIMin))*weightOI +
		subScore(q.ImpliedVolatility, th.IVMin)*weightIV

	score = math.Min(score, 1.0)
	return math.Round(score*100) / 100
}

// subScore is value/threshold capped to [0,1]. A non-positive threshold is
// satisfied by anything and scores full.
func subScore(value, threshold float64) float64 {
	if threshold <= 0 {
		return 1.0
	}
	return math.Max(0, math.Min(value/threshold, 1.0))
}
