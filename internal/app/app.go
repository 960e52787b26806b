// Package app wires configuration into the aggregation, storage and report components
// shared by the CLI commands, the daemon and the MCP server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/thewisemo/al-eairy-ota/config"
	"github.com/thewisemo/al-eairy-ota/internal/aggregator"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/pricing"
	"github.com/thewisemo/al-eairy-ota/internal/query"
	"github.com/thewisemo/al-eairy-ota/internal/report"
	"github.com/thewisemo/al-eairy-ota/internal/retry"
	"github.com/thewisemo/al-eairy-ota/internal/store"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// Store is the snapshot file store.
func (a *App) Store() *store.FileStore {
	sc := a.Config.Store
	return store.NewFileStore(sc.Dir, sc.Prefix, sc.Latest)
}

// Cities reads the configured cities file, falling back to the built-in list.
func (a *App) Cities() ([]string, error) {
	cities, fellBack, err := query.LoadCities(a.Config.Run.CitiesFile)
	if err != nil {
		return nil, err
	}
	if fellBack {
		a.Logger.Info().Str("file", a.Config.Run.CitiesFile).Int("cities", len(cities)).Msg("using built-in city list")
	}
	return cities, nil
}

// Expander builds the query expander from the built-in synonym table plus the
// optional synonyms file.
func (a *App) Expander() (*query.Expander, error) {
	qc := a.Config.Query
	table := query.DefaultTable()
	if qc.SynonymsFile != "" {
		extra, err := query.LoadSynonyms(qc.SynonymsFile)
		if err != nil {
			return nil, err
		}
		table.Merge(extra)
	}

	opts := query.DefaultOptions()
	opts.Seed = a.Config.Run.Seed
	if len(qc.LangOrder) > 0 {
		opts.LangOrder = opts.LangOrder[:0:0]
		for _, l := range qc.LangOrder {
			opts.LangOrder = append(opts.LangOrder, query.Lang(l))
		}
	}
	if len(qc.Suffixes) > 0 {
		opts.Suffixes = make(map[query.Lang][]string, len(qc.Suffixes))
		for l, s := range qc.Suffixes {
			opts.Suffixes[query.Lang(l)] = s
		}
	}
	return query.NewExpander(table, opts), nil
}

// Brand builds the tracked-brand identity; empty patterns use the built-in ones.
func (a *App) Brand() (aggregator.Brand, error) {
	bc := a.Config.Brand
	brand := aggregator.DefaultBrand()
	if len(bc.Patterns) > 0 {
		m, err := pricing.NewBrandMatcher(bc.Patterns)
		if err != nil {
			return aggregator.Brand{}, fmt.Errorf("brand patterns: %w", err)
		}
		brand.Matcher = m
	}
	if len(bc.Queries) > 0 {
		brand.Queries = make(map[query.Lang][]string, len(bc.Queries))
		for l, names := range bc.Queries {
			brand.Queries[query.Lang(l)] = names
		}
	}
	return brand, nil
}

// RunDate is today's calendar date in the run timezone, returned as UTC midnight.
func (a *App) RunDate(now time.Time) time.Time {
	local := now.In(a.Config.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Stay derives the searched stay from the run date.
func (a *App) Stay(runDate time.Time) platform.Stay {
	return platform.NewStay(runDate, a.Config.Run.StayOffsetDays, a.Config.Run.StayNights)
}

func (a *App) retryOptions() retry.Options {
	qc := a.Config.Query
	return retry.Options{Attempts: qc.Attempts, Timeout: qc.Timeout, Backoff: qc.Backoff}
}

// openMirror connects the Postgres mirror when a DSN is configured. A nil mirror
// means mirroring is disabled.
func (a *App) openMirror(ctx context.Context) (*store.PGMirror, func(), error) {
	if !a.Config.Database.Enabled() {
		return nil, func() {}, nil
	}
	pool, err := store.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	mirror := store.NewPGMirror(pool, a.Logger)
	if err := mirror.EnsureSchema(ctx); err != nil {
		mirror.Close()
		return nil, nil, err
	}
	return mirror, mirror.Close, nil
}

// OpenMirror is openMirror for callers outside the package (MCP history tool).
func (a *App) OpenMirror(ctx context.Context) (*store.PGMirror, func(), error) {
	return a.openMirror(ctx)
}

func (a *App) newNotifier() report.Notifier {
	tc := a.Config.Report.Telegram
	if !tc.Enabled {
		return nil
	}
	return report.NewTelegramNotifier(tc.BotToken, tc.ChatID, tc.APIBase, a.Config.Report.Timeout, a.Logger)
}
