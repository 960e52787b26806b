package app

import (
	"context"
	"fmt"
	"time"

	"github.com/thewisemo/al-eairy-ota/internal/aggregator"
	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/store"
)

// ScrapeOptions override the configured run for one invocation.
type ScrapeOptions struct {
	// Cities replaces the cities file when non-empty.
	Cities []string
	// Providers replaces run.providers when non-empty.
	Providers []string
	SkipUnits bool
	// DryRun skips writing the snapshot and the mirror.
	DryRun bool
	// Now is the run clock; zero means time.Now.
	Now time.Time

	adapters []platform.Adapter
}

// ScrapeResult is a finished run.
type ScrapeResult struct {
	Snapshot *models.RunSnapshot
	// Path is the dated artifact, empty on a dry run.
	Path string
}

// Scrape performs one aggregation run and persists it. Provider failures never fail
// the run; configuration, browser launch and snapshot write errors do.
func (a *App) Scrape(ctx context.Context, opts ScrapeOptions) (*ScrapeResult, error) {
	var mirror *store.PGMirror
	if !opts.DryRun {
		m, closeMirror, err := a.openMirror(ctx)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("postgres mirror unavailable, continuing with files only")
		} else {
			defer closeMirror()
			mirror = m
		}
	}
	return a.scrape(ctx, opts, mirror)
}

func (a *App) scrape(ctx context.Context, opts ScrapeOptions, mirror *store.PGMirror) (*ScrapeResult, error) {
	cities := opts.Cities
	if len(cities) == 0 {
		var err error
		if cities, err = a.Cities(); err != nil {
			return nil, err
		}
	}
	providers := opts.Providers
	if len(providers) == 0 {
		providers = a.Config.Run.Providers
	}
	expander, err := a.Expander()
	if err != nil {
		return nil, err
	}
	brand, err := a.Brand()
	if err != nil {
		return nil, err
	}

	adapters := opts.adapters
	if adapters == nil {
		stack, err := a.newFetchStack(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := stack.Close(); err != nil {
				a.Logger.Warn().Err(err).Msg("close fetchers")
			}
		}()
		if adapters, err = a.registerAdapters(providers, stack.fetchers); err != nil {
			return nil, err
		}
	}

	agg := aggregator.New(aggregator.Options{
		Adapters:       adapters,
		Expander:       expander,
		Brand:          brand,
		Retry:          a.retryOptions(),
		MaxPerProvider: a.Config.Run.MaxPerProvider,
		MaxUnitRows:    a.Config.Run.MaxUnitRows,
		SkipUnits:      opts.SkipUnits || a.Config.Run.SkipUnits,
	}, a.Logger)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	runDate := a.RunDate(now)
	snap := agg.Run(ctx, cities, runDate, a.Stay(runDate))
	// A cancelled run is incomplete; it must not replace the dated file or latest.json.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted after %d of %d cities: %w", len(snap.Cities), len(cities), err)
	}

	res := &ScrapeResult{Snapshot: snap}
	if opts.DryRun {
		return res, nil
	}
	path, err := a.Store().Write(snap)
	if err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}
	res.Path = path
	a.Logger.Info().Str("path", path).Str("run_id", snap.RunID).Msg("snapshot written")

	if mirror != nil {
		if err := mirror.Mirror(ctx, snap); err != nil {
			a.Logger.Error().Err(err).Str("run_id", snap.RunID).Msg("mirror snapshot")
		}
	}
	return res, nil
}
