package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/thewisemo/al-eairy-ota/internal/scheduler"
)

// Daemon runs Scrape on every scheduled slot, followed by the report when
// scheduler.report_after_run is set. With Postgres configured, an advisory lock
// keeps concurrent daemons from running the same slot twice.
func (a *App) Daemon(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mirror, closeMirror, err := a.openMirror(ctx)
	if err != nil {
		return err
	}
	defer closeMirror()
	if mirror == nil {
		a.Logger.Warn().Msg("database.dsn not configured; mirror and run lock disabled")
	}

	sc := a.Config.Scheduler
	sched := scheduler.New(scheduler.Options{
		Interval:     sc.Interval,
		Offset:       sc.Offset,
		AlignToStart: sc.AlignToStart,
		StartupDelay: sc.StartupDelay,
		RunOnStart:   sc.RunOnStart,
		Location:     a.Config.Location(),
	}, a.Logger)

	a.Logger.Info().Dur("interval", sc.Interval).Dur("offset", sc.Offset).Msg("starting daemon")
	err = sched.Run(ctx, func(ctx context.Context, slot time.Time) error {
		if mirror != nil {
			unlock, ok, err := mirror.TryAdvisoryLock(ctx, sc.AdvisoryLockKey)
			if err != nil {
				return err
			}
			if !ok {
				a.Logger.Info().Time("slot", slot).Msg("another daemon holds the run lock, skipping")
				return nil
			}
			defer unlock()
		}

		res, err := a.scrape(ctx, ScrapeOptions{Now: slot}, mirror)
		if err != nil {
			return err
		}
		if !sc.ReportAfterRun {
			return nil
		}
		_, err = a.Report(ctx, ReportOptions{Source: res.Path, Notify: a.Config.Report.Telegram.Enabled, Now: slot})
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("daemon stopped")
	return nil
}
