package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/external/kite"
	"github.com/wonny/optsignals/internal/symbols"
	"github.com/wonny/optsignals/pkg/logger"
)

// QuoteClient is the part of the Kite client the live provider needs
type QuoteClient interface {
	Session() *kite.Session
	Quote(ctx context.Context, instruments ...string) (map[string]kite.Quote, error)
}

// KiteProvider reads live quotes through an authenticated Kite session
type KiteProvider struct {
	client            QuoteClient
	logger            *logger.Logger
	now               func() time.Time
	useContractExpiry bool
}

// KiteOption configures a KiteProvider
type KiteOption func(*KiteProvider)

// WithContractExpiry derives TimeToExpiry from the weekly expiry date
func WithContractExpiry(enabled bool) KiteOption {
	return func(p *KiteProvider) {
		p.useContractExpiry = enabled
	}
}

// WithKiteClock overrides the time source used for expiry selection
func WithKiteClock(now func() time.Time) KiteOption {
	return func(p *KiteProvider) {
		p.now = now
	}
}

// NewKiteProvider creates a live provider
func NewKiteProvider(client QuoteClient, log *logger.Logger, opts ...KiteOption) *KiteProvider {
	if log == nil {
		log = logger.NewNop()
	}
	p := &KiteProvider{
		client: client,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Spot returns the index last price
func (p *KiteProvider) Spot(ctx context.Context, sym symbols.Symbol) (float64, contracts.DataSource, error) {
	if !p.client.Session().Authenticated() {
		return 0, "", kite.ErrNotAuthenticated
	}

	quotes, err := p.client.Quote(ctx, sym.QuoteKey)
	if err != nil {
		return 0, "", fmt.Errorf("spot %s: %w", sym.Name, err)
	}

	q, ok := quotes[sym.QuoteKey]
	if !ok || q.LastPrice <= 0 {
		return 0, "", fmt.Errorf("spot %s: no last price for %s", sym.Name, sym.QuoteKey)
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol": sym.Name,
		"ltp":    q.LastPrice,
	}).Debug("Live spot fetched")

	return q.LastPrice, contracts.SourceLive, nil
}

// Chain fetches both legs of each selected strike. Strikes whose quotes
// fail or are absent are skipped; an empty result is ErrNoStrikes.
func (p *KiteProvider) Chain(ctx context.Context, sym symbols.Symbol, spot float64) (*contracts.Snapshot, error) {
	if !p.client.Session().Authenticated() {
		return nil, kite.ErrNotAuthenticated
	}

	now := p.now()
	expiry := NextExpiry(now)
	strikes := SelectStrikes(spot, sym.StrikeInterval)

	snap := &contracts.Snapshot{
		Symbol:    sym.Name,
		Spot:      spot,
		Source:    contracts.SourceLive,
		FetchedAt: now.UTC(),
	}
	if p.useContractExpiry {
		snap.TimeToExpiry = YearsToExpiry(now, expiry)
	}

	for _, strike := range strikes {
		ce := InstrumentName(sym.Segment, sym.Name, expiry, strike, contracts.SideCall)
		pe := InstrumentName(sym.Segment, sym.Name, expiry, strike, contracts.SidePut)

		quotes, err := p.client.Quote(ctx, ce, pe)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol": sym.Name,
				"strike": strike,
			}).Warn("Could not fetch strike")
			continue
		}

		ceQuote, hasCE := quotes[ce]
		peQuote, hasPE := quotes[pe]
		if !hasCE && !hasPE {
			p.logger.WithFields(map[string]interface{}{
				"symbol": sym.Name,
				"strike": strike,
				"ce":     ce,
			}).Warn("No quotes for strike")
			continue
		}

		sq := contracts.StrikeQuote{
			Strike: strike,
			Call:   sideFromQuote(ceQuote, strike),
			Put:    sideFromQuote(peQuote, strike),
		}
		snap.Strikes = append(snap.Strikes, sq)

		p.logger.WithFields(map[string]interface{}{
			"symbol": sym.Name,
			"strike": strike,
			"ce_oi":  sq.Call.OpenInterest,
			"pe_oi":  sq.Put.OpenInterest,
		}).Debug("Live strike fetched")
	}

	if len(snap.Strikes) == 0 {
		return nil, fmt.Errorf("live chain %s: %w", sym.Name, ErrNoStrikes)
	}
	return snap, nil
}

// sideFromQuote maps a Kite quote to a chain leg. IV is approximated as the
// previous close over the strike; Kite quotes carry no implied volatility.
func sideFromQuote(q kite.Quote, strike float64) contracts.SideQuote {
	iv := 0.0
	if strike > 0 {
		iv = q.OHLC.Close / strike
	}
	return contracts.SideQuote{
		LastPrice:         q.LastPrice,
		OpenInterest:      q.OI,
		ImpliedVolatility: iv,
		Volume:            q.Volume,
		Bid:               q.BestBid(),
		Ask:               q.BestAsk(),
	}
}
