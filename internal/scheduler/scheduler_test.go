package scheduler

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/config"
)

type recordingRunner struct {
	mu          sync.Mutex
	updates     int
	settlements int
}

func (r *recordingRunner) RunUpdate(ctx context.Context, runDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	return nil
}

func (r *recordingRunner) RunSettlement(ctx context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements++
	return nil
}

func (r *recordingRunner) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates, r.settlements
}

func newTestScheduler(cfg config.ScheduleConfig) (*Scheduler, *recordingRunner) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	runner := &recordingRunner{}
	return NewScheduler(runner, cfg, logger), runner
}

func TestScheduleJobs(t *testing.T) {
	s, _ := newTestScheduler(config.ScheduleConfig{
		UpdateCron:                "0 6 * * *",
		SettlementIntervalMinutes: 120,
	})

	require.NoError(t, s.ScheduleJobs())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.True(t, s.IsRunning())
	assert.False(t, s.NextUpdateRun().IsZero())
}

func TestScheduleJobsRejectsBadCron(t *testing.T) {
	s, _ := newTestScheduler(config.ScheduleConfig{
		UpdateCron:                "not a cron expression",
		SettlementIntervalMinutes: 120,
	})

	assert.Error(t, s.ScheduleJobs())
}

func TestStartWithoutJobsFails(t *testing.T) {
	s, _ := newTestScheduler(config.ScheduleConfig{})
	assert.Error(t, s.Start())
}

func TestRunOnStartTriggersUpdate(t *testing.T) {
	s, runner := newTestScheduler(config.ScheduleConfig{
		UpdateCron:                "0 6 * * *",
		SettlementIntervalMinutes: 120,
		RunOnStart:                true,
	})

	require.NoError(t, s.ScheduleJobs())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		updates, _ := runner.counts()
		return updates == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(config.ScheduleConfig{
		UpdateCron:                "0 6 * * *",
		SettlementIntervalMinutes: 120,
	})

	require.NoError(t, s.ScheduleJobs())
	require.NoError(t, s.Start())

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}
