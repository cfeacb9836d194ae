package jobs

import (
	"context"

	"github.com/wonny/optsignals/internal/external/kite"
	"github.com/wonny/optsignals/pkg/logger"
	"github.com/wonny/optsignals/pkg/redis"
)

// SessionSyncJob picks up a Kite login made by another process (the API
// server persists it to Redis) so a standalone worker can use live data.
type SessionSyncJob struct {
	session *kite.Session
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewSessionSyncJob creates a session sync job
func NewSessionSyncJob(session *kite.Session, cache *redis.Cache, log *logger.Logger) *SessionSyncJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &SessionSyncJob{
		session: session,
		cache:   cache,
		logger:  log,
	}
}

// Name returns the job name
func (j *SessionSyncJob) Name() string {
	return "session_sync"
}

// Schedule returns the cron schedule (every 30 seconds)
func (j *SessionSyncJob) Schedule() string {
	return "*/30 * * * * *"
}

// Run restores the shared session when this process has none
func (j *SessionSyncJob) Run(ctx context.Context) error {
	if j.session.Authenticated() || !j.cache.Enabled() {
		return nil
	}

	found, err := j.session.Restore(ctx, j.cache)
	if err != nil {
		return err
	}
	if found {
		j.logger.WithField("user_id", j.session.Info().UserID).Info("Kite session restored from shared cache")
	}
	return nil
}
