package symbols

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/optsignals/internal/contracts"
)

// ErrUnknownSymbol is returned for symbols missing from the registry
var ErrUnknownSymbol = errors.New("unknown symbol")

// defaultBasePrice is used when a symbol has no configured strike base
const defaultBasePrice = 20000

// Symbol describes one tradable index
type Symbol struct {
	Name           string  `yaml:"name" json:"name"`
	Token          string  `yaml:"token" json:"token"`
	QuoteKey       string  `yaml:"quote_key" json:"quote_key"` // e.g. "NSE:NIFTY 50"
	Segment        string  `yaml:"segment" json:"segment"`     // derivatives exchange prefix
	StrikeBase     float64 `yaml:"strike_base" json:"strike_base"`
	StrikeInterval float64 `yaml:"strike_interval" json:"strike_interval"`
}

// Registry holds the symbol profiles and default thresholds
// ⭐ SSOT: 심볼 매핑/기준가는 여기서만
type Registry struct {
	symbols    map[string]Symbol
	order      []string
	thresholds contracts.Thresholds
}

// Default returns the built-in NIFTY/BANKNIFTY/SENSEX profile
func Default() *Registry {
	r, _ := newRegistry([]Symbol{
		{Name: "NIFTY", Token: "99926009", QuoteKey: "NSE:NIFTY 50", Segment: "NFO", StrikeBase: 20000, StrikeInterval: 50},
		{Name: "BANKNIFTY", Token: "99926037", QuoteKey: "NSE:NIFTY BANK", Segment: "NFO", StrikeBase: 45000, StrikeInterval: 100},
		{Name: "SENSEX", Token: "99926000", QuoteKey: "BSE:SENSEX", Segment: "NFO", StrikeBase: 70000, StrikeInterval: 100},
	}, contracts.DefaultThresholds())
	return r
}

func newRegistry(list []Symbol, th contracts.Thresholds) (*Registry, error) {
	r := &Registry{
		symbols:    make(map[string]Symbol, len(list)),
		thresholds: th,
	}
	for _, s := range list {
		s.Name = strings.ToUpper(strings.TrimSpace(s.Name))
		if s.Name == "" {
			return nil, fmt.Errorf("symbol name is required")
		}
		if _, dup := r.symbols[s.Name]; dup {
			return nil, fmt.Errorf("duplicate symbol %s", s.Name)
		}
		if s.StrikeInterval <= 0 {
			return nil, fmt.Errorf("symbol %s: strike_interval must be positive", s.Name)
		}
		if s.StrikeBase < 0 {
			return nil, fmt.Errorf("symbol %s: strike_base must not be negative", s.Name)
		}
		if s.Segment == "" {
			s.Segment = "NFO"
		}
		if s.QuoteKey == "" {
			s.QuoteKey = "NSE:" + s.Name
		}
		r.symbols[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	return r, nil
}

// Lookup returns the profile for a symbol (case-insensitive)
func (r *Registry) Lookup(name string) (Symbol, error) {
	s, ok := r.symbols[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Symbol{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	return s, nil
}

// Has reports whether the symbol is configured
func (r *Registry) Has(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

// Names returns symbols in configuration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedNames returns symbols alphabetically
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}

// BasePrice is the fallback underlying price for a symbol
func (r *Registry) BasePrice(name string) float64 {
	if s, err := r.Lookup(name); err == nil && s.StrikeBase > 0 {
		return s.StrikeBase
	}
	return defaultBasePrice
}

// Thresholds returns the configured default thresholds
func (r *Registry) Thresholds() contracts.Thresholds {
	return r.thresholds
}
