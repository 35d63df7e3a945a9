// Package scheduler drives the recurring update and settlement runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

// Runner is the pipeline surface the scheduler drives
type Runner interface {
	RunUpdate(ctx context.Context, runDate time.Time) error
	RunSettlement(ctx context.Context, now time.Time) error
}

// Scheduler manages the cron-driven update and settlement jobs
type Scheduler struct {
	cron      *cron.Cron
	runner    Runner
	cfg       config.ScheduleConfig
	logger    *logrus.Logger
	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, cfg config.ScheduleConfig, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		runner: runner,
		cfg:    cfg,
		logger: logger,
		jobIDs: make([]cron.EntryID, 0),
	}
}

// ScheduleJobs registers the daily update and the settlement poll
func (s *Scheduler) ScheduleJobs() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule jobs while scheduler is running")
	}

	updateID, err := s.cron.AddFunc(s.cfg.UpdateCron, s.runUpdate)
	if err != nil {
		return fmt.Errorf("failed to schedule update job: %w", err)
	}
	s.jobIDs = append(s.jobIDs, updateID)

	settlementID, err := s.cron.AddFunc(
		fmt.Sprintf("@every %dm", s.cfg.SettlementIntervalMinutes), s.runSettlement)
	if err != nil {
		return fmt.Errorf("failed to schedule settlement job: %w", err)
	}
	s.jobIDs = append(s.jobIDs, settlementID)

	s.logger.WithFields(logrus.Fields{
		"update_cron":         s.cfg.UpdateCron,
		"settlement_interval": fmt.Sprintf("%dm", s.cfg.SettlementIntervalMinutes),
	}).Info("Scheduled pipeline jobs")

	return nil
}

func (s *Scheduler) runUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := s.runner.RunUpdate(ctx, time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrRunInProgress) {
			s.logger.Warn("Skipping scheduled update: a run already holds the lock")
			return
		}
		s.logger.WithError(err).Error("Scheduled update run failed")
	}
}

func (s *Scheduler) runSettlement() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.runner.RunSettlement(ctx, time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrRunInProgress) {
			s.logger.Warn("Skipping scheduled settlement: a pass already holds the lock")
			return
		}
		s.logger.WithError(err).Error("Scheduled settlement pass failed")
	}
}

// Start starts the scheduler. With RunOnStart set, an update run fires
// immediately in the background before the cron cadence takes over.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	if s.cfg.RunOnStart {
		go s.runUpdate()
	}

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextUpdateRun returns the time of the next scheduled run across all jobs
func (s *Scheduler) NextUpdateRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}

	return next
}
