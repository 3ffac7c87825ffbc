package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/metrics"
)

const defaultInterval = time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service ticks the maintenance jobs (snapshot flush, stale order and ride
// reminders) while holding Lock so only one instance works per cycle.
type Service struct {
	logg     *logger.Logger
	jobs     *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

// Report summarises one cycle.
type Report struct {
	Skipped bool
	Ran     []string
	Failed  []string
	Err     error
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Lock == nil:
		return nil, fmt.Errorf("lock required")
	}
	svc := &Service{
		logg:     params.Logger,
		jobs:     params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if svc.jobs == nil {
		svc.jobs = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Run blocks until ctx is done. Boot-time restore and seeding get one full
// interval before the first cycle.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopped")
			return ctx.Err()
		case <-ticker.C:
			report, err := s.RunCycle(ctx)
			if err != nil {
				s.logg.Error(ctx, "cron cycle aborted", err)
				continue
			}
			if report.Err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "failed_jobs", report.Failed), "cron cycle finished with failures")
			}
		}
	}
}

// RunCycle runs every registered job once. Job failures are collected in
// the report; only lock errors abort the cycle.
func (s *Service) RunCycle(ctx context.Context) (Report, error) {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("lock acquire: %w", err)
	}
	if !held {
		s.metrics.IncSkipped("locked")
		s.logg.Info(ctx, "cron lock held elsewhere; skipping cycle")
		return Report{Skipped: true}, nil
	}

	var report Report
	for _, job := range s.jobs.Jobs() {
		report.Ran = append(report.Ran, job.Name())
		if jobErr := s.runJob(ctx, job); jobErr != nil {
			report.Failed = append(report.Failed, job.Name())
			report.Err = multierr.Append(report.Err, fmt.Errorf("%s: %w", job.Name(), jobErr))
		}
	}

	if err := s.lock.Release(ctx); err != nil {
		s.logg.Error(ctx, "cron lock release failed", err)
	}
	return report, nil
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		elapsed := time.Since(started)
		s.metrics.ObserveDuration(name, elapsed)
		jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
		if err != nil {
			s.metrics.IncFailure(name)
			s.logg.Error(jobCtx, "job failed", err)
			return
		}
		s.metrics.IncSuccess(name)
		s.logg.Info(jobCtx, "job completed")
	}()

	return job.Run(jobCtx)
}
