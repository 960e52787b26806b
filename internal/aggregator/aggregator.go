// Package aggregator runs the per-city, per-provider search pipeline and assembles
// the run snapshot.
package aggregator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/pricing"
	"github.com/thewisemo/al-eairy-ota/internal/query"
	"github.com/thewisemo/al-eairy-ota/internal/ranking"
	"github.com/thewisemo/al-eairy-ota/internal/retry"
)

// Brand identifies the tracked brand.
type Brand struct {
	Matcher *pricing.BrandMatcher
	// Queries are the brand names used for the brand-targeted search, per index language.
	Queries map[query.Lang][]string
}

// DefaultBrand tracks Al Eairy.
func DefaultBrand() Brand {
	m, _ := pricing.NewBrandMatcher(pricing.DefaultBrandPatterns)
	return Brand{
		Matcher: m,
		Queries: map[query.Lang][]string{
			query.English: {"Al Eairy"},
			query.Arabic:  {"العييري"},
		},
	}
}

// Options configures an Aggregator.
type Options struct {
	// Adapters in processing order.
	Adapters       []platform.Adapter
	Expander       *query.Expander
	Brand          Brand
	Retry          retry.Options
	MaxPerProvider int
	MaxUnitRows    int
	// SkipUnits leaves listings without unit detail.
	SkipUnits bool
}

// Aggregator is not safe for concurrent use; adapters share one browser page.
type Aggregator struct {
	opts Options
	log  zerolog.Logger
}

// New returns an Aggregator, filling unset limits, brand and expander with defaults.
func New(opts Options, logger zerolog.Logger) *Aggregator {
	if opts.MaxPerProvider <= 0 {
		opts.MaxPerProvider = ranking.DefaultMaxPerProvider
	}
	if opts.MaxUnitRows <= 0 {
		opts.MaxUnitRows = 20
	}
	if opts.Brand.Matcher == nil {
		opts.Brand = DefaultBrand()
	}
	if opts.Expander == nil {
		opts.Expander = query.NewExpander(query.DefaultTable(), query.DefaultOptions())
	}
	return &Aggregator{
		opts: opts,
		log:  logger.With().Str("component", "aggregator").Logger(),
	}
}

// Run aggregates every city in order. It never fails on provider errors; a provider
// that found nothing still gets an empty list plus a note in the snapshot meta.
// When ctx is cancelled it stops before the next city and returns what it has;
// callers must treat that snapshot as incomplete.
func (a *Aggregator) Run(ctx context.Context, cities []string, runDate time.Time, stay platform.Stay) *models.RunSnapshot {
	snap := &models.RunSnapshot{
		RunID:    uuid.NewString(),
		Date:     runDate.Format(models.DateLayout),
		CheckIn:  stay.CheckIn.Format(models.DateLayout),
		CheckOut: stay.CheckOut.Format(models.DateLayout),
		Currency: stay.Currency,
		Cities:   make([]models.CityResult, 0, len(cities)),
		Meta:     make(map[string]map[string]string),
	}
	if snap.Currency == "" {
		snap.Currency = models.SettlementCurrency
	}

	start := time.Now()
	for i, city := range cities {
		if ctx.Err() != nil {
			a.log.Warn().Err(ctx.Err()).Int("remaining", len(cities)-i).Msg("run interrupted")
			break
		}
		platform.Progressf(ctx, "[%d/%d] %s", i+1, len(cities), city)
		res := a.City(ctx, city, runDate, stay)
		snap.Cities = append(snap.Cities, res)
		if len(res.Notes) > 0 {
			snap.Meta[city] = res.Notes
		}
	}

	a.log.Info().
		Str("run_id", snap.RunID).
		Int("cities", len(snap.Cities)).
		Int("with_brand", countBrandCities(snap.Cities)).
		Dur("took", time.Since(start)).
		Msg("run complete")
	return snap
}

// City aggregates one city across all adapters, in adapter order.
func (a *Aggregator) City(ctx context.Context, city string, runDate time.Time, stay platform.Stay) models.CityResult {
	res := models.CityResult{
		City:      city,
		Providers: make(models.ProviderResults, 0, len(a.opts.Adapters)),
		Summary:   make(map[string]models.ProviderSummary, len(a.opts.Adapters)),
	}
	for _, ad := range a.opts.Adapters {
		listings, note := a.provider(ctx, ad, city, runDate, stay)
		res.Providers = append(res.Providers, models.ProviderResult{Provider: ad.Name(), Listings: listings})
		res.Summary[ad.Name()] = ranking.Summarize(listings)
		if note != "" {
			if res.Notes == nil {
				res.Notes = make(map[string]string)
			}
			res.Notes[ad.Name()] = note
		}
	}
	return res
}

// provider runs the pipeline for one (city, provider) pair and returns the final
// list plus the diagnostic note, empty when the primary search found listings.
func (a *Aggregator) provider(ctx context.Context, ad platform.Adapter, city string, runDate time.Time, stay platform.Stay) ([]models.Listing, string) {
	log := a.log.With().Str("city", city).Str("provider", ad.Name()).Logger()
	opts := platform.SearchOpts{Stay: stay, Limit: a.opts.MaxPerProvider}

	candidates := a.opts.Expander.Expand(city, runDate)
	primary := retry.FirstNonEmpty(ctx, candidates, a.opts.Retry, func(ctx context.Context, q string) ([]models.Listing, error) {
		return ad.Search(ctx, q, city, opts)
	})

	var note string
	switch primary.Status() {
	case retry.Found:
		log.Debug().Str("query", primary.Query).Int("listings", len(primary.Items)).Msg("search hit")
	case retry.Failed:
		note = primary.Note()
		log.Warn().Err(primary.Err).Strs("tried", primary.Tried).Msg("search failed")
	default:
		note = primary.Note()
		log.Warn().Strs("tried", primary.Tried).Msg("no results")
	}

	raw := a.classify(primary.Items)
	if !anyBrand(raw) {
		if l, ok := a.brandSearch(ctx, ad, city, runDate, opts, log); ok {
			raw = append(raw, l)
		}
	}

	final := ranking.Rank(raw, a.opts.MaxPerProvider)
	a.attachUnits(ctx, ad, final, log)
	ranking.SortByPrice(final)
	return final, note
}

// classify stamps brand identity from the name alone, overriding whatever the adapter set.
func (a *Aggregator) classify(listings []models.Listing) []models.Listing {
	out := make([]models.Listing, len(listings))
	for i, l := range listings {
		l.IsTrackedBrand = a.opts.Brand.Matcher.Match(l.Hotel)
		out[i] = l
	}
	return out
}

// brandSearch looks for the brand by name in every index language. The cheapest
// brand listing of the first candidate that has any is returned, marked guaranteed.
func (a *Aggregator) brandSearch(ctx context.Context, ad platform.Adapter, city string, runDate time.Time, opts platform.SearchOpts, log zerolog.Logger) (models.Listing, bool) {
	candidates := a.opts.Expander.BrandQueries(a.opts.Brand.Queries, city, runDate)
	if len(candidates) == 0 {
		return models.Listing{}, false
	}
	out := retry.FirstNonEmpty(ctx, candidates, a.opts.Retry, func(ctx context.Context, q string) ([]models.Listing, error) {
		hits, err := ad.Search(ctx, q, city, opts)
		if err != nil {
			return nil, err
		}
		var brand []models.Listing
		for _, l := range a.classify(hits) {
			if l.IsTrackedBrand {
				brand = append(brand, l)
			}
		}
		return brand, nil
	})
	if out.Status() != retry.Found {
		log.Debug().Str("outcome", out.Status().String()).Strs("tried", out.Tried).Msg("brand not found")
		return models.Listing{}, false
	}

	ranking.SortByPrice(out.Items)
	l := out.Items[0]
	l.Guaranteed = true
	// Position on a brand-name search page says nothing about the city ranking.
	l.Rank = 0
	log.Info().Str("query", out.Query).Str("hotel", l.Hotel).Str("price", l.LowestPrice.String()).Msg("brand listing added")
	return l, true
}

// attachUnits fetches units cheapest first. A failed fetch leaves the listing with
// no units.
func (a *Aggregator) attachUnits(ctx context.Context, ad platform.Adapter, listings []models.Listing, log zerolog.Logger) {
	for i := range listings {
		l := &listings[i]
		l.Units = []models.Unit{}
		if a.opts.SkipUnits || l.URL == "" || ctx.Err() != nil {
			continue
		}
		units, err := a.fetchUnits(ctx, ad, l.URL)
		if err != nil {
			log.Warn().Err(err).Str("hotel", l.Hotel).Msg("units unavailable")
			continue
		}
		if units != nil {
			l.Units = units
		}
	}
}

func (a *Aggregator) fetchUnits(ctx context.Context, ad platform.Adapter, url string) ([]models.Unit, error) {
	if a.opts.Retry.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Retry.Timeout)
		defer cancel()
	}
	return ad.FetchUnits(ctx, url, a.opts.MaxUnitRows)
}

func anyBrand(listings []models.Listing) bool {
	for _, l := range listings {
		if l.IsTrackedBrand {
			return true
		}
	}
	return false
}

func countBrandCities(cities []models.CityResult) int {
	n := 0
	for _, c := range cities {
		if c.HasBrand() {
			n++
		}
	}
	return n
}
