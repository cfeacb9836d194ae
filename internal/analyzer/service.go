package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/external/kite"
	"github.com/wonny/optsignals/internal/marketdata"
	"github.com/wonny/optsignals/internal/scoring"
	"github.com/wonny/optsignals/internal/symbols"
	"github.com/wonny/optsignals/pkg/logger"
)

// Errors surfaced to callers
var (
	ErrUnknownSymbol     = symbols.ErrUnknownSymbol
	ErrNotAuthenticated  = kite.ErrNotAuthenticated
	ErrNoStrikes         = marketdata.ErrNoStrikes
	ErrInvalidThresholds = errors.New("invalid thresholds")
)

// maxParallel bounds concurrent symbol analyses
const maxParallel = 4

// Recorder persists emitted signals
type Recorder interface {
	Save(ctx context.Context, signal *contracts.Signal) error
}

// Publisher fans emitted signals out to live subscribers
type Publisher interface {
	Publish(signal *contracts.Signal)
}

// Service runs the fetch → score pipeline for a symbol
// ⭐ SSOT: 시그널 분석 흐름은 여기서만
type Service struct {
	registry  *symbols.Registry
	provider  marketdata.Provider
	scorer    *scoring.Scorer
	session   *kite.Session
	kiteReady bool
	recorder  Recorder
	publisher Publisher
	logger    *logger.Logger

	mu   sync.RWMutex
	last map[string]*contracts.Signal
}

// Option configures a Service
type Option func(*Service)

// WithRecorder stores every emitted signal
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithPublisher broadcasts every emitted signal
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithSession reports broker connectivity in ConnectionStatus
func WithSession(session *kite.Session, configured bool) Option {
	return func(s *Service) {
		s.session = session
		s.kiteReady = configured
	}
}

// New creates an analyzer
func New(registry *symbols.Registry, provider marketdata.Provider, scorer *scoring.Scorer, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if scorer == nil {
		scorer = scoring.NewScorer(log)
	}
	s := &Service{
		registry: registry,
		provider: provider,
		scorer:   scorer,
		logger:   log,
		last:     make(map[string]*contracts.Signal),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the symbol registry
func (s *Service) Registry() *symbols.Registry {
	return s.registry
}

// DefaultThresholds returns the configured default thresholds
func (s *Service) DefaultThresholds() contracts.Thresholds {
	return s.registry.Thresholds()
}

// Analyze scores the current chain of one symbol. A nil signal with a nil
// error means no candidate met the criteria.
func (s *Service) Analyze(ctx context.Context, symbol string, th contracts.Thresholds) (*contracts.Signal, error) {
	sym, err := s.registry.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}

	spot, err := s.spot(ctx, sym)
	if err != nil {
		return nil, err
	}

	snap, err := s.provider.Chain(ctx, sym, spot)
	if err != nil {
		return nil, fmt.Errorf("option chain %s: %w", sym.Name, err)
	}
	if !snap.HasStrikes() {
		return nil, fmt.Errorf("option chain %s: %w", sym.Name, ErrNoStrikes)
	}

	// 캐시된 스냅샷은 공유됨: 복사본에 현재 현물가 적용
	scored := *snap
	scored.Spot = spot

	s.logger.WithFields(map[string]interface{}{
		"symbol":  sym.Name,
		"spot":    spot,
		"strikes": len(scored.Strikes),
		"source":  scored.Source,
	}).Debug("Analyzing option chain")

	signal := s.scorer.Score(&scored, th)
	if signal == nil {
		return nil, nil
	}

	s.emit(ctx, signal)
	return signal, nil
}

// spot returns the underlying price, falling back to the symbol's base price
// when the provider fails or answers with a non-positive value
func (s *Service) spot(ctx context.Context, sym symbols.Symbol) (float64, error) {
	spot, _, err := s.provider.Spot(ctx, sym)
	if err == nil && spot > 0 {
		return spot, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	base := s.registry.BasePrice(sym.Name)
	fields := map[string]interface{}{
		"symbol": sym.Name,
		"base":   base,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logger.WithFields(fields).Warn("Spot unavailable, using base price")
	return base, nil
}

func (s *Service) emit(ctx context.Context, signal *contracts.Signal) {
	s.mu.Lock()
	s.last[signal.Symbol] = signal
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.Save(ctx, signal); err != nil {
			s.logger.WithError(err).WithField("symbol", signal.Symbol).Warn("Failed to record signal")
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(signal)
	}
}

// Last returns the most recent signal emitted for a symbol
func (s *Service) Last(symbol string) (*contracts.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.last[symbol]
	return sig, ok
}

// AnalyzeMany runs Analyze count times per symbol, symbols in parallel.
// Unknown symbols and per-symbol failures are skipped; results keep input order.
func (s *Service) AnalyzeMany(ctx context.Context, names []string, th contracts.Thresholds, count int) ([]*contracts.Signal, error) {
	if count < 1 {
		count = 1
	}

	perSymbol := make([][]*contracts.Signal, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, name := range names {
		if !s.registry.Has(name) {
			s.logger.WithField("symbol", name).Debug("Skipping unknown symbol")
			continue
		}

		i, name := i, name
		g.Go(func() error {
			for n := 0; n < count; n++ {
				signal, err := s.Analyze(gctx, name, th)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					s.logger.WithError(err).WithField("symbol", name).Warn("Analysis failed")
					return nil
				}
				if signal != nil {
					perSymbol[i] = append(perSymbol[i], signal)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*contracts.Signal, 0, len(names))
	for _, signals := range perSymbol {
		out = append(out, signals...)
	}
	return out, nil
}

// ConnectionStatus describes broker connectivity
type ConnectionStatus struct {
	KiteInitialized bool   `json:"kite_initialized"`
	Authenticated   bool   `json:"authenticated"`
	AccessToken     bool   `json:"access_token"`
	APIKey          bool   `json:"api_key"`
	Status          string `json:"status"`
	UserID          string `json:"user_id,omitempty"`
}

// Connection status values
const (
	StatusAuthenticated  = "AUTHENTICATED"
	StatusReadyForAuth   = "READY_FOR_AUTH"
	StatusNotInitialized = "NOT_INITIALIZED"
)

// ConnectionStatus reports whether live data is available
func (s *Service) ConnectionStatus() ConnectionStatus {
	st := ConnectionStatus{
		KiteInitialized: s.kiteReady,
		APIKey:          s.kiteReady,
		Status:          StatusNotInitialized,
	}
	if s.kiteReady {
		st.Status = StatusReadyForAuth
	}
	if s.session != nil {
		info := s.session.Info()
		st.Authenticated = info.Authenticated
		st.AccessToken = info.Authenticated
		st.UserID = info.UserID
		if info.Authenticated {
			st.Status = StatusAuthenticated
		}
	}
	return st
}

// DataSource returns the provenance live requests would currently get
func (s *Service) DataSource() contracts.DataSource {
	if s.session != nil && s.session.Authenticated() {
		return contracts.SourceLive
	}
	return contracts.SourceSimulated
}
