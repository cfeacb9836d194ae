package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/optsignals/internal/analyzer"
	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/data/repos"
	"github.com/wonny/optsignals/internal/external/kite"
	"github.com/wonny/optsignals/internal/marketdata"
	"github.com/wonny/optsignals/internal/realtime"
	"github.com/wonny/optsignals/internal/realtime/cache"
	"github.com/wonny/optsignals/internal/scheduler"
	"github.com/wonny/optsignals/internal/scheduler/jobs"
	"github.com/wonny/optsignals/internal/scoring"
	"github.com/wonny/optsignals/internal/symbols"
	"github.com/wonny/optsignals/pkg/config"
	"github.com/wonny/optsignals/pkg/database"
	"github.com/wonny/optsignals/pkg/httputil"
	"github.com/wonny/optsignals/pkg/logger"
	"github.com/wonny/optsignals/pkg/redis"
)

// redisPrefix namespaces every key this service writes
const redisPrefix = "optsignals"

// app holds the wired dependency graph shared by the commands
type app struct {
	cfg *config.Config
	log *logger.Logger

	registry *symbols.Registry
	redis    *redis.Client
	shared   *redis.Cache
	db       *database.DB
	history  *repos.SignalRepository

	session *kite.Session
	kite    *kite.Client

	spots  *cache.TTLCache[marketdata.SpotQuote]
	chains *cache.TTLCache[*contracts.Snapshot]

	hub      *realtime.Hub
	analyzer *analyzer.Service
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if symbolsFile != "" {
		cfg.SymbolsFile = symbolsFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires config → logger → redis → database → broker → providers → analyzer
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	// 3. Symbol profiles
	a.registry, err = symbols.LoadOrDefault(cfg.SymbolsFile)
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}

	// 4. Redis (optional)
	a.redis = redis.Disabled()
	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, continuing with in-memory cache only")
		} else {
			a.redis = client
			log.Info("Connected to Redis")
		}
	}
	a.shared = redis.NewCache(a.redis, redisPrefix)

	// 5. Database (optional, signal history)
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.history = repos.NewSignalRepository(db.Pool)
		if err := a.history.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure signal schema: %w", err)
		}
		log.Info("Connected to database")
	}

	// 6. Broker client
	httpClient := httputil.New(log).WithLimiter(cfg.Kite.RateLimit)
	if a.redis.Enabled() {
		httpClient = httpClient.WithRateLimiter(
			redis.NewRateLimiter(a.redis, redisPrefix),
			redis.NewKiteRateLimit(cfg.Kite.RateLimit),
		)
	}
	a.session = kite.NewSession()
	a.kite = kite.NewClient(cfg.Kite, a.session, httpClient, log)

	if ok, err := a.session.Restore(ctx, a.shared); err != nil {
		log.WithError(err).Warn("Failed to restore shared Kite session")
	} else if ok {
		log.WithField("user_id", a.session.Info().UserID).Info("Restored Kite session")
	}

	// 7. Providers: live → simulated, behind the TTL cache
	live := marketdata.NewKiteProvider(a.kite, log, marketdata.WithContractExpiry(cfg.UseContractExpiry))
	provider := marketdata.NewFallback(live, marketdata.NewSimulated(time.Now().UnixNano()), log)

	a.spots = cache.New[marketdata.SpotQuote](cfg.CacheTTL, log).WithRemote(a.shared)
	a.chains = cache.New[*contracts.Snapshot](cfg.CacheTTL, log).WithRemote(a.shared)
	cached := marketdata.NewCachedProvider(provider, a.spots, a.chains)

	// 8. Analyzer + realtime hub
	a.hub = realtime.NewHub(log)
	opts := []analyzer.Option{
		analyzer.WithPublisher(a.hub),
		analyzer.WithSession(a.session, a.kite.Configured()),
	}
	if a.history != nil {
		opts = append(opts, analyzer.WithRecorder(a.history))
	}
	a.analyzer = analyzer.New(a.registry, cached, scoring.NewScorer(log), log, opts...)

	log.WithFields(map[string]interface{}{
		"symbols":     a.registry.Names(),
		"data_source": a.analyzer.DataSource(),
		"redis":       a.redis.Enabled(),
		"history":     a.history != nil,
	}).Info("Application initialized")

	return a, nil
}

// newScheduler registers the background jobs
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	toRegister := []scheduler.Job{
		jobs.NewSignalScanJob(a.analyzer, a.cfg.Scan.Symbols, a.cfg.Scan.Schedule, a.log),
		jobs.NewCacheCleanupJob(a.log, a.spots, a.chains),
	}
	if a.shared.Enabled() {
		toRegister = append(toRegister, jobs.NewSessionSyncJob(a.session, a.shared, a.log))
	}

	for _, job := range toRegister {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}
	return sched, nil
}

// Close releases every connection the app opened
func (a *app) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close Redis")
		}
	}
}
