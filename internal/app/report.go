package app

import (
	"context"
	"fmt"
	"time"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/report"
)

// ReportOptions override the configured report for one invocation.
type ReportOptions struct {
	// Source is a URL or path; empty uses report.source, then the local latest pointer.
	Source string
	OutDir string
	// Cities narrows the report to these cities.
	Cities []string
	// Notify delivers the summary through the configured channel.
	Notify bool
	// NoFiles skips writing CSV, chart and summary files.
	NoFiles bool
	Now     time.Time
}

type ReportResult struct {
	Report    *report.Report
	Artifacts report.Artifacts
	Notified  bool
}

// Report fetches the latest snapshot and renders it. A fetch failure fails the
// report without touching stored snapshots.
func (a *App) Report(ctx context.Context, opts ReportOptions) (*ReportResult, error) {
	rc := a.Config.Report
	src := report.Source{Location: opts.Source, Retries: 2}
	if src.Location == "" {
		src.Location = rc.Source
	}
	if src.Location == "" {
		src.Location = a.Store().LatestPath()
	}

	timeout := rc.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	snap, err := src.Load(loadCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("load snapshot from %s: %w", src.Location, err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	rep := report.Build(snap, report.Options{
		Brand:           a.Config.Brand.Name,
		Date:            a.RunDate(now).Format(models.DateLayout),
		OnlyBrandCities: rc.OnlyBrandCities,
	}).Filter(opts.Cities...)

	res := &ReportResult{Report: rep}
	if !opts.NoFiles {
		dir := opts.OutDir
		if dir == "" {
			dir = rc.OutDir
		}
		if res.Artifacts, err = report.WriteArtifacts(ctx, rep, dir, a.Config.Store.Prefix); err != nil {
			return nil, err
		}
		if res.Artifacts.ChartErr != nil {
			a.Logger.Warn().Err(res.Artifacts.ChartErr).Msg("chart skipped")
		}
		a.Logger.Info().Str("csv", res.Artifacts.CSV).Str("chart", res.Artifacts.Chart).Msg("report written")
	}

	if opts.Notify {
		notifier := a.newNotifier()
		if notifier == nil {
			a.Logger.Warn().Msg("notify requested but report.telegram is disabled")
			return res, nil
		}
		if err := notifier.Notify(ctx, rep.Text()); err != nil {
			return res, fmt.Errorf("deliver report: %w", err)
		}
		res.Notified = true
	}
	return res, nil
}
