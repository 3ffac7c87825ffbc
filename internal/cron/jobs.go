package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

type snapshotFlusher interface {
	Enabled() bool
	Flush(ctx context.Context) error
}

type staleRideReminder interface {
	RemindStale(ctx context.Context, before time.Time) (int, error)
}

type pendingOrderReminder interface {
	RemindPending(ctx context.Context, olderThan time.Duration) (int, error)
}

// NewSnapshotJob flushes the working state to the configured sink. It
// returns nil when no sink is configured.
func NewSnapshotJob(flusher snapshotFlusher) Job {
	if flusher == nil || !flusher.Enabled() {
		return nil
	}
	return &snapshotJob{flusher: flusher}
}

type snapshotJob struct {
	flusher snapshotFlusher
}

func (j *snapshotJob) Name() string { return "snapshot_flush" }

func (j *snapshotJob) Run(ctx context.Context) error {
	return j.flusher.Flush(ctx)
}

// NewStaleRideJob re-announces rides nobody accepted within after.
func NewStaleRideJob(rides staleRideReminder, after time.Duration, logg *logger.Logger) (Job, error) {
	if rides == nil {
		return nil, errors.New("ride dispatcher required")
	}
	if after <= 0 {
		return nil, errors.New("stale ride window must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &staleRideJob{rides: rides, after: after, logg: logg, now: time.Now}, nil
}

type staleRideJob struct {
	rides staleRideReminder
	after time.Duration
	logg  *logger.Logger
	now   func() time.Time
}

func (j *staleRideJob) Name() string { return "stale_rides" }

func (j *staleRideJob) Run(ctx context.Context) error {
	count, err := j.rides.RemindStale(ctx, j.now().UTC().Add(-j.after))
	if err != nil {
		return err
	}
	if count > 0 {
		j.logg.Info(j.logg.WithField(ctx, "rides", count), "stale rides re-announced")
	}
	return nil
}

// NewStaleOrderJob reminds agreed suppliers about orders left pending for
// longer than after.
func NewStaleOrderJob(orders pendingOrderReminder, after time.Duration, logg *logger.Logger) (Job, error) {
	if orders == nil {
		return nil, errors.New("order service required")
	}
	if after <= 0 {
		return nil, errors.New("stale order window must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &staleOrderJob{orders: orders, after: after, logg: logg}, nil
}

type staleOrderJob struct {
	orders pendingOrderReminder
	after  time.Duration
	logg   *logger.Logger
}

func (j *staleOrderJob) Name() string { return "stale_orders" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	count, err := j.orders.RemindPending(ctx, j.after)
	if err != nil {
		return err
	}
	if count > 0 {
		j.logg.Info(j.logg.WithField(ctx, "orders", count), "pending orders re-announced")
	}
	return nil
}
