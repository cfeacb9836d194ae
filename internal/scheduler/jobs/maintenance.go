package jobs

import (
	"context"

	"github.com/wonny/optsignals/pkg/logger"
)

// StaleCleaner is anything that can evict expired entries
type StaleCleaner interface {
	CleanStale() int
}

// CacheCleanupJob evicts expired quote and chain entries
type CacheCleanupJob struct {
	caches []StaleCleaner
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(log *logger.Logger, caches ...StaleCleaner) *CacheCleanupJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &CacheCleanupJob{
		caches: caches,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every minute)
func (j *CacheCleanupJob) Schedule() string {
	return "0 * * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed := 0
	for _, c := range j.caches {
		removed += c.CleanStale()
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Debug("Cache cleanup completed")
	}
	return nil
}
