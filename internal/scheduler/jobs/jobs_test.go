package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/internal/external/kite"
	"github.com/wonny/optsignals/pkg/redis"
)

type fakeAnalyzer struct {
	names []string
	th    contracts.Thresholds
	count int
	err   error
}

func (f *fakeAnalyzer) AnalyzeMany(_ context.Context, names []string, th contracts.Thresholds, count int) ([]*contracts.Signal, error) {
	f.names, f.th, f.count = names, th, count
	if f.err != nil {
		return nil, f.err
	}
	return []*contracts.Signal{{Symbol: names[0]}}, nil
}

func (f *fakeAnalyzer) DefaultThresholds() contracts.Thresholds {
	return contracts.DefaultThresholds()
}

func TestSignalScanJob(t *testing.T) {
	a := &fakeAnalyzer{}
	job := NewSignalScanJob(a, []string{"NIFTY", "SENSEX"}, "*/10 * * * * *", nil)

	assert.Equal(t, "signal_scan", job.Name())
	assert.Equal(t, "*/10 * * * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"NIFTY", "SENSEX"}, a.names)
	assert.Equal(t, contracts.DefaultThresholds(), a.th)
	assert.Equal(t, 1, a.count)

	a.err = context.DeadlineExceeded
	assert.True(t, errors.Is(job.Run(context.Background()), context.DeadlineExceeded))
}

type fakeCleaner struct{ n int }

func (f *fakeCleaner) CleanStale() int { return f.n }

func TestCacheCleanupJob(t *testing.T) {
	job := NewCacheCleanupJob(nil, &fakeCleaner{n: 2}, &fakeCleaner{n: 1})

	assert.Equal(t, "cache_cleanup", job.Name())
	assert.NoError(t, job.Run(context.Background()))
}

func TestSessionSyncJob_DisabledCache(t *testing.T) {
	session := kite.NewSession()
	job := NewSessionSyncJob(session, redis.NewCache(redis.Disabled(), "test"), nil)

	assert.Equal(t, "session_sync", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.False(t, session.Authenticated())
}
