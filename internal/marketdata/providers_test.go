package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/external/kite"
	"github.com/wonny/optsignals/internal/realtime/cache"
	"github.com/wonny/optsignals/internal/symbols"
)

var nifty = symbols.Symbol{
	Name:           "NIFTY",
	QuoteKey:       "NSE:NIFTY 50",
	Segment:        "NFO",
	StrikeBase:     20000,
	StrikeInterval: 50,
}

// fakeQuotes serves canned Kite quotes
type fakeQuotes struct {
	mu      sync.Mutex
	session *kite.Session
	quotes  map[string]kite.Quote
	fail    map[string]error // keyed by first instrument
	calls   [][]string
}

func newFakeQuotes(authenticated bool) *fakeQuotes {
	s := kite.NewSession()
	if authenticated {
		s.Set(kite.SessionData{AccessToken: "tok"})
	}
	return &fakeQuotes{session: s, quotes: map[string]kite.Quote{}, fail: map[string]error{}}
}

func (f *fakeQuotes) Session() *kite.Session { return f.session }

func (f *fakeQuotes) Quote(_ context.Context, instruments ...string) (map[string]kite.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, instruments)
	if err, ok := f.fail[instruments[0]]; ok {
		return nil, err
	}
	out := map[string]kite.Quote{}
	for _, inst := range instruments {
		if q, ok := f.quotes[inst]; ok {
			out[inst] = q
		}
	}
	return out, nil
}

// monday 2024-01-15, expiry 24JAN18
var testNow = time.Date(2024, 1, 15, 10, 0, 0, 0, IST)

func TestKiteProvider_Spot(t *testing.T) {
	fq := newFakeQuotes(true)
	fq.quotes["NSE:NIFTY 50"] = kite.Quote{LastPrice: 20012.35}
	p := NewKiteProvider(fq, nil)

	spot, src, err := p.Spot(context.Background(), nifty)
	require.NoError(t, err)
	assert.Equal(t, 20012.35, spot)
	assert.Equal(t, contracts.SourceLive, src)

	fq.quotes["NSE:NIFTY 50"] = kite.Quote{}
	_, _, err = p.Spot(context.Background(), nifty)
	assert.Error(t, err)
}

func TestKiteProvider_RequiresSession(t *testing.T) {
	p := NewKiteProvider(newFakeQuotes(false), nil)

	_, _, err := p.Spot(context.Background(), nifty)
	assert.ErrorIs(t, err, kite.ErrNotAuthenticated)

	_, err = p.Chain(context.Background(), nifty, 20000)
	assert.ErrorIs(t, err, kite.ErrNotAuthenticated)
}

func TestKiteProvider_Chain(t *testing.T) {
	fq := newFakeQuotes(true)
	fq.quotes["NFO:NIFTY24JAN1820000CE"] = kite.Quote{
		LastPrice: 120, OI: 75000, Volume: 9000,
		OHLC:  kite.OHLC{Close: 4400},
		Depth: kite.Depth{Buy: []kite.DepthItem{{Price: 119.5}}, Sell: []kite.DepthItem{{Price: 120.5}}},
	}
	fq.quotes["NFO:NIFTY24JAN1820000PE"] = kite.Quote{LastPrice: 95, OI: 64000, OHLC: kite.OHLC{Close: 5000}}
	fq.fail["NFO:NIFTY24JAN1819950CE"] = errors.New("timeout")

	p := NewKiteProvider(fq, nil, WithKiteClock(func() time.Time { return testNow }))

	snap, err := p.Chain(context.Background(), nifty, 20010)
	require.NoError(t, err)

	assert.Equal(t, contracts.SourceLive, snap.Source)
	assert.Equal(t, 20010.0, snap.Spot)
	assert.Zero(t, snap.TimeToExpiry)
	require.Len(t, snap.Strikes, 1, "failed strike is skipped")

	sq := snap.Strikes[0]
	assert.Equal(t, 20000.0, sq.Strike)
	assert.Equal(t, int64(75000), sq.Call.OpenInterest)
	assert.InDelta(t, 0.22, sq.Call.ImpliedVolatility, 1e-12)
	assert.Equal(t, 119.5, sq.Call.Bid)
	assert.Equal(t, 120.5, sq.Call.Ask)
	assert.InDelta(t, 0.25, sq.Put.ImpliedVolatility, 1e-12)

	require.Len(t, fq.calls, 2)
	assert.Equal(t, []string{"NFO:NIFTY24JAN1820000CE", "NFO:NIFTY24JAN1820000PE"}, fq.calls[0])
}

func TestKiteProvider_ChainEmpty(t *testing.T) {
	p := NewKiteProvider(newFakeQuotes(true), nil, WithKiteClock(func() time.Time { return testNow }))

	_, err := p.Chain(context.Background(), nifty, 20000)
	assert.ErrorIs(t, err, ErrNoStrikes)
}

func TestKiteProvider_ContractExpiry(t *testing.T) {
	fq := newFakeQuotes(true)
	fq.quotes["NFO:NIFTY24JAN1820000CE"] = kite.Quote{OI: 1}

	p := NewKiteProvider(fq, nil,
		WithKiteClock(func() time.Time { return testNow }),
		WithContractExpiry(true),
	)

	snap, err := p.Chain(context.Background(), nifty, 20000)
	require.NoError(t, err)
	// monday 10:00 -> thursday 15:30 = 77.5h
	assert.InDelta(t, 77.5/(365*24), snap.TimeToExpiry, 1e-12)
}

func TestSimulated(t *testing.T) {
	sim := NewSimulated(42)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		spot, src, err := sim.Spot(ctx, nifty)
		require.NoError(t, err)
		assert.Equal(t, contracts.SourceSimulated, src)
		assert.GreaterOrEqual(t, spot, 19800.0)
		assert.LessOrEqual(t, spot, 20200.0)

		snap, err := sim.Chain(ctx, nifty, spot)
		require.NoError(t, err)
		assert.Equal(t, contracts.SourceSimulated, snap.Source)
		require.Len(t, snap.Strikes, 2)
		assert.Equal(t, snap.Strikes[0].Strike-50, snap.Strikes[1].Strike)

		for _, sq := range snap.Strikes {
			for _, leg := range []contracts.SideQuote{sq.Call, sq.Put} {
				assert.GreaterOrEqual(t, leg.LastPrice, 50.0)
				assert.LessOrEqual(t, leg.LastPrice, 500.0)
				assert.GreaterOrEqual(t, leg.OpenInterest, int64(10000))
				assert.LessOrEqual(t, leg.OpenInterest, int64(200000))
				assert.GreaterOrEqual(t, leg.ImpliedVolatility, 0.15)
				assert.LessOrEqual(t, leg.ImpliedVolatility, 0.40)
				assert.GreaterOrEqual(t, leg.Volume, int64(1000))
				assert.LessOrEqual(t, leg.Volume, int64(50000))
			}
		}
	}
}

func TestSimulated_Deterministic(t *testing.T) {
	a, _ := NewSimulated(7).Chain(context.Background(), nifty, 20000)
	b, _ := NewSimulated(7).Chain(context.Background(), nifty, 20000)
	assert.Equal(t, a.Strikes, b.Strikes)
}

func TestSimulated_DefaultBase(t *testing.T) {
	spot, _, err := NewSimulated(1).Spot(context.Background(), symbols.Symbol{Name: "X", StrikeInterval: 50})
	require.NoError(t, err)
	assert.InDelta(t, 20000, spot, 200)
}

// stubProvider returns fixed results
type stubProvider struct {
	spot     float64
	src      contracts.DataSource
	spotErr  error
	snap     *contracts.Snapshot
	chainErr error
	calls    int
}

func (s *stubProvider) Spot(context.Context, symbols.Symbol) (float64, contracts.DataSource, error) {
	s.calls++
	return s.spot, s.src, s.spotErr
}

func (s *stubProvider) Chain(_ context.Context, sym symbols.Symbol, spot float64) (*contracts.Snapshot, error) {
	s.calls++
	return s.snap, s.chainErr
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	simSnap := &contracts.Snapshot{Symbol: "NIFTY", Source: contracts.SourceSimulated, Strikes: []contracts.StrikeQuote{{Strike: 20000}}}
	liveSnap := &contracts.Snapshot{Symbol: "NIFTY", Source: contracts.SourceLive, Strikes: []contracts.StrikeQuote{{Strike: 20000}}}
	secondary := &stubProvider{spot: 20100, src: contracts.SourceSimulated, snap: simSnap}

	t.Run("primary ok", func(t *testing.T) {
		f := NewFallback(&stubProvider{spot: 20000, src: contracts.SourceLive, snap: liveSnap}, secondary, nil)

		spot, src, err := f.Spot(ctx, nifty)
		require.NoError(t, err)
		assert.Equal(t, 20000.0, spot)
		assert.Equal(t, contracts.SourceLive, src)

		snap, err := f.Chain(ctx, nifty, spot)
		require.NoError(t, err)
		assert.Equal(t, contracts.SourceLive, snap.Source)
	})

	t.Run("primary fails", func(t *testing.T) {
		f := NewFallback(&stubProvider{spotErr: kite.ErrNotAuthenticated, chainErr: kite.ErrNotAuthenticated}, secondary, nil)

		spot, src, err := f.Spot(ctx, nifty)
		require.NoError(t, err)
		assert.Equal(t, 20100.0, spot)
		assert.Equal(t, contracts.SourceSimulated, src)

		snap, err := f.Chain(ctx, nifty, spot)
		require.NoError(t, err)
		assert.Equal(t, contracts.SourceSimulated, snap.Source)
	})

	t.Run("primary empty", func(t *testing.T) {
		f := NewFallback(&stubProvider{spot: 0, snap: &contracts.Snapshot{}}, secondary, nil)

		spot, _, err := f.Spot(ctx, nifty)
		require.NoError(t, err)
		assert.Equal(t, 20100.0, spot)

		snap, err := f.Chain(ctx, nifty, 20000)
		require.NoError(t, err)
		assert.Same(t, simSnap, snap)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		f := NewFallback(&stubProvider{spotErr: context.Canceled, chainErr: context.Canceled}, secondary, nil)

		_, _, err := f.Spot(cctx, nifty)
		assert.ErrorIs(t, err, context.Canceled)
		_, err = f.Chain(cctx, nifty, 20000)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()
	inner := &stubProvider{
		spot: 20000,
		src:  contracts.SourceLive,
		snap: &contracts.Snapshot{Symbol: "NIFTY", Strikes: []contracts.StrikeQuote{{Strike: 20000}}},
	}
	p := NewCachedProvider(inner,
		cache.New[SpotQuote](5*time.Second, nil),
		cache.New[*contracts.Snapshot](5*time.Second, nil),
	)

	for i := 0; i < 3; i++ {
		spot, src, err := p.Spot(ctx, nifty)
		require.NoError(t, err)
		assert.Equal(t, 20000.0, spot)
		assert.Equal(t, contracts.SourceLive, src)

		_, err = p.Chain(ctx, nifty, spot)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inner.calls)

	p.Invalidate("NIFTY")
	_, _, err := p.Spot(ctx, nifty)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedProvider_ErrorsPassThrough(t *testing.T) {
	boom := fmt.Errorf("boom")
	p := NewCachedProvider(&stubProvider{spotErr: boom, chainErr: boom},
		cache.New[SpotQuote](time.Second, nil),
		cache.New[*contracts.Snapshot](time.Second, nil),
	)

	_, _, err := p.Spot(context.Background(), nifty)
	assert.ErrorIs(t, err, boom)
	_, err = p.Chain(context.Background(), nifty, 20000)
	assert.ErrorIs(t, err, boom)
}
