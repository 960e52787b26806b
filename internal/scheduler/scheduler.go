// Package scheduler fires a daily (or any fixed-interval) run on wall-clock boundaries.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked for every slot. slot is the boundary the tick belongs to.
type TickFunc func(ctx context.Context, slot time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval time.Duration
	// Offset shifts aligned slots, e.g. Interval 24h with Offset 2h fires at 02:00.
	Offset       time.Duration
	AlignToStart bool
	StartupDelay time.Duration
	// RunOnStart fires one tick immediately, before waiting for the first slot.
	RunOnStart bool
	// Location is the zone slots are aligned in; nil means UTC.
	Location *time.Location
}

// Scheduler drives aligned execution of aggregation runs.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Scheduler. It panics on a non-positive interval.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
}

// Run blocks, invoking tick on every slot until ctx is cancelled. A failing tick is
// logged and does not stop the loop.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := wait(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	if s.opts.RunOnStart {
		s.fire(ctx, tick, s.now().In(s.opts.Location))
	}

	next := s.nextTick(s.now())
	for {
		delay := next.Sub(s.now())
		if delay < 0 {
			next = s.nextTick(s.now())
			delay = next.Sub(s.now())
		}
		s.logger.Debug().Time("next_slot", next).Dur("in", delay).Msg("waiting for next slot")

		if err := wait(ctx, delay); err != nil {
			return err
		}
		s.fire(ctx, tick, next)
		next = s.nextTick(next)
	}
}

func (s *Scheduler) fire(ctx context.Context, tick TickFunc, slot time.Time) {
	s.logger.Info().Time("slot", slot).Msg("executing scheduled run")
	if err := tick(ctx, slot); err != nil {
		s.logger.Error().Err(err).Time("slot", slot).Msg("scheduled run failed")
	}
}

// nextTick returns the first slot strictly after now.
func (s *Scheduler) nextTick(now time.Time) time.Time {
	now = now.In(s.opts.Location)
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	// Truncate works on absolute time; shift by the zone offset so daily slots land
	// on local midnight rather than UTC midnight.
	_, zoneOffset := now.Zone()
	shift := time.Duration(zoneOffset)*time.Second - s.opts.Offset
	slot := now.Add(shift).Truncate(s.opts.Interval).Add(-shift)
	for !slot.After(now) {
		slot = slot.Add(s.opts.Interval)
	}
	return slot
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
