// Package marketdata produces option-chain snapshots for the scoring engine.
// Live quotes come from Kite; a simulated source stands in when the broker
// session is missing or a live call fails.
package marketdata

import (
	"context"
	"errors"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/symbols"
)

// ErrNoStrikes is returned when a chain request yields nothing usable
var ErrNoStrikes = errors.New("option chain has no strikes")

// Provider supplies the underlying price and the option chain around it
type Provider interface {
	// Spot returns the underlying last price and where it came from
	Spot(ctx context.Context, sym symbols.Symbol) (float64, contracts.DataSource, error)

	// Chain returns the strikes selected around spot
	Chain(ctx context.Context, sym symbols.Symbol, spot float64) (*contracts.Snapshot, error)
}
