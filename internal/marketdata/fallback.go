package marketdata

import (
	"context"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/symbols"
	"github.com/wonny/optsignals/pkg/logger"
)

// Fallback asks the primary provider first and the secondary on any error.
// The snapshot's Source tells which one answered.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    *logger.Logger
}

// NewFallback composes two providers
func NewFallback(primary, secondary Provider, log *logger.Logger) *Fallback {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    log,
	}
}

// Spot implements Provider
func (f *Fallback) Spot(ctx context.Context, sym symbols.Symbol) (float64, contracts.DataSource, error) {
	spot, src, err := f.primary.Spot(ctx, sym)
	if err == nil && spot > 0 {
		return spot, src, nil
	}
	if ctx.Err() != nil {
		return 0, "", ctx.Err()
	}

	f.logger.WithFields(map[string]interface{}{
		"symbol": sym.Name,
		"reason": reason(err),
	}).Debug("Spot falling back")
	return f.secondary.Spot(ctx, sym)
}

// Chain implements Provider
func (f *Fallback) Chain(ctx context.Context, sym symbols.Symbol, spot float64) (*contracts.Snapshot, error) {
	snap, err := f.primary.Chain(ctx, sym, spot)
	if err == nil && snap.HasStrikes() {
		return snap, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.WithFields(map[string]interface{}{
		"symbol": sym.Name,
		"reason": reason(err),
	}).Info("Using simulated option chain")
	return f.secondary.Chain(ctx, sym, spot)
}

func reason(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
