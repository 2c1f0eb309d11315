// Package scheduler drives the snapshot cadence of the liquidity monitor.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotFunc takes one snapshot for the given bucket.
type SnapshotFunc func(ctx context.Context, bucket time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval time.Duration
	// AlignToStart snaps buckets to multiples of Interval (10:00, 10:05, ...).
	AlignToStart bool
	StartupDelay time.Duration
	// Immediate takes a first snapshot as soon as the startup delay elapses
	// instead of waiting for the next bucket boundary.
	Immediate bool
}

// Scheduler invokes a SnapshotFunc once per bucket.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler. It panics on a non-positive interval.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks until ctx is cancelled, snapshotting once per bucket. Snapshot
// errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context, fn SnapshotFunc) error {
	if err := wait(ctx, s.opts.StartupDelay); err != nil {
		return err
	}

	if s.opts.Immediate {
		s.fire(ctx, fn, s.bucketStart(time.Now().UTC()))
	}

	next := s.nextTick(time.Now().UTC())
	for {
		// a slow snapshot may overrun the following boundary
		if time.Until(next) < 0 {
			skipped := next
			next = s.nextTick(time.Now().UTC())
			s.logger.Warn().Time("skipped_bucket", skipped).Time("next_bucket", next).Msg("snapshot overran its bucket")
		}

		s.logger.Debug().Time("next_bucket", next).Msg("waiting for next snapshot")
		if err := wait(ctx, time.Until(next)); err != nil {
			return err
		}

		s.fire(ctx, fn, s.bucketStart(next))
		next = next.Add(s.opts.Interval)
	}
}

// RunOnce takes a single snapshot for the current bucket.
func (s *Scheduler) RunOnce(ctx context.Context, fn SnapshotFunc) error {
	bucket := s.bucketStart(time.Now().UTC())
	s.logger.Info().Time("bucket", bucket).Msg("taking single snapshot")
	return fn(ctx, bucket)
}

func (s *Scheduler) fire(ctx context.Context, fn SnapshotFunc, bucket time.Time) {
	started := time.Now()
	s.logger.Info().Time("bucket", bucket).Msg("taking scheduled snapshot")
	if err := fn(ctx, bucket); err != nil {
		s.logger.Error().Err(err).Time("bucket", bucket).Msg("snapshot failed")
		return
	}
	s.logger.Debug().Time("bucket", bucket).Dur("took", time.Since(started)).Msg("snapshot done")
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scheduler) nextTick(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	return now.Truncate(s.opts.Interval).Add(s.opts.Interval)
}

func (s *Scheduler) bucketStart(t time.Time) time.Time {
	if !s.opts.AlignToStart {
		return t
	}
	return t.Truncate(s.opts.Interval)
}
