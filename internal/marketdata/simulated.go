package marketdata

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/symbols"
)

// defaultBase is the simulated spot for symbols without a strike base
const defaultBase = 20000

// Simulation ranges. Integer ranges are inclusive.
const (
	simSpotLow, simSpotHigh = 0.99, 1.01
	simLTPLow, simLTPHigh   = 50.0, 500.0
	simOILow, simOIHigh     = 10000, 200000
	simIVLow, simIVHigh     = 0.15, 0.40
	simVolLow, simVolHigh   = 1000, 50000
)

// Simulated produces plausible random chains when live data is unavailable
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulated creates a simulated provider with the given seed
func NewSimulated(seed int64) *Simulated {
	return &Simulated{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Spot returns base * U(0.99, 1.01)
func (s *Simulated) Spot(_ context.Context, sym symbols.Symbol) (float64, contracts.DataSource, error) {
	base := sym.StrikeBase
	if base <= 0 {
		base = defaultBase
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return base * s.uniform(simSpotLow, simSpotHigh), contracts.SourceSimulated, nil
}

// Chain returns random legs for the strikes selected around spot
func (s *Simulated) Chain(_ context.Context, sym symbols.Symbol, spot float64) (*contracts.Snapshot, error) {
	strikes := SelectStrikes(spot, sym.StrikeInterval)

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &contracts.Snapshot{
		Symbol:    sym.Name,
		Spot:      spot,
		Source:    contracts.SourceSimulated,
		FetchedAt: s.now().UTC(),
		Strikes:   make([]contracts.StrikeQuote, 0, len(strikes)),
	}
	for _, strike := range strikes {
		snap.Strikes = append(snap.Strikes, contracts.StrikeQuote{
			Strike: strike,
			Call:   s.leg(),
			Put:    s.leg(),
		})
	}
	return snap, nil
}

func (s *Simulated) leg() contracts.SideQuote {
	return contracts.SideQuote{
		LastPrice:         s.uniform(simLTPLow, simLTPHigh),
		OpenInterest:      s.intn(simOILow, simOIHigh),
		ImpliedVolatility: s.uniform(simIVLow, simIVHigh),
		Volume:            s.intn(simVolLow, simVolHigh),
	}
}

func (s *Simulated) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Simulated) intn(lo, hi int64) int64 {
	return lo + s.rng.Int63n(hi-lo+1)
}
