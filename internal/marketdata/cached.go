package marketdata

import (
	"context"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/realtime/cache"
	"github.com/wonny/optsignals/internal/symbols"
	"github.com/wonny/optsignals/pkg/redis"
)

// SpotQuote is the cached form of a spot lookup
type SpotQuote struct {
	Price  float64              `json:"price"`
	Source contracts.DataSource `json:"source"`
}

// CachedProvider memoizes spot and chain lookups per symbol for the cache TTL.
// Keys are ltp_{SYMBOL} and option_chain_{SYMBOL}.
type CachedProvider struct {
	inner  Provider
	spots  *cache.TTLCache[SpotQuote]
	chains *cache.TTLCache[*contracts.Snapshot]
}

// NewCachedProvider wraps inner with the given caches
func NewCachedProvider(inner Provider, spots *cache.TTLCache[SpotQuote], chains *cache.TTLCache[*contracts.Snapshot]) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		spots:  spots,
		chains: chains,
	}
}

// Spot implements Provider
func (c *CachedProvider) Spot(ctx context.Context, sym symbols.Symbol) (float64, contracts.DataSource, error) {
	q, err := c.spots.GetOrCompute(ctx, redis.LTPKey(sym.Name), func(ctx context.Context) (SpotQuote, error) {
		price, src, err := c.inner.Spot(ctx, sym)
		return SpotQuote{Price: price, Source: src}, err
	})
	if err != nil {
		return 0, "", err
	}
	return q.Price, q.Source, nil
}

// Chain implements Provider. The cached snapshot is shared; callers must not
// modify it.
func (c *CachedProvider) Chain(ctx context.Context, sym symbols.Symbol, spot float64) (*contracts.Snapshot, error) {
	return c.chains.GetOrCompute(ctx, redis.ChainKey(sym.Name), func(ctx context.Context) (*contracts.Snapshot, error) {
		return c.inner.Chain(ctx, sym, spot)
	})
}

// Invalidate drops cached data for a symbol
func (c *CachedProvider) Invalidate(symbol string) {
	c.spots.Delete(redis.LTPKey(symbol))
	c.chains.Delete(redis.ChainKey(symbol))
}
