// Package ota implements the Booking, Agoda and Expedia source adapters. Each adapter
// builds provider URLs, loads them through the shared fetchers and parses the HTML.
package ota

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/pricing"
	"github.com/thewisemo/al-eairy-ota/internal/query"
)

// Provider names in their default processing order.
const (
	Booking = "Booking"
	Agoda   = "Agoda"
	Expedia = "Expedia"
)

// DefaultProviders is the fixed default order providers are processed in.
var DefaultProviders = []string{Booking, Agoda, Expedia}

// DefaultPageSize caps listings read from one result page.
const DefaultPageSize = 15

// site is the provider-specific half of an adapter.
type site interface {
	searchURL(q string, opts platform.SearchOpts) string
	parseSearch(page string, limit int) ([]models.Listing, error)
	parseUnits(page string, maxRows int) ([]models.Unit, error)
}

// Adapter is a platform.Adapter for one provider. Fetchers are tried in order until
// one yields a parseable page; all adapters of a run share the same fetchers.
type Adapter struct {
	name     string
	site     site
	fetchers []platform.Fetcher
	log      zerolog.Logger
}

var _ platform.Adapter = (*Adapter)(nil)

// New builds the adapter called name (case-insensitive).
func New(name string, logger zerolog.Logger, fetchers ...platform.Fetcher) (*Adapter, error) {
	switch strings.ToLower(name) {
	case "booking":
		return NewBooking(logger, fetchers...), nil
	case "agoda":
		return NewAgoda(logger, fetchers...), nil
	case "expedia":
		return NewExpedia(logger, fetchers...), nil
	default:
		return nil, fmt.Errorf("provider %q: %w", name, platform.ErrNotRegistered)
	}
}

func NewBooking(logger zerolog.Logger, fetchers ...platform.Fetcher) *Adapter {
	return newAdapter(Booking, &booking{base: "https://www.booking.com"}, logger, fetchers)
}

func NewAgoda(logger zerolog.Logger, fetchers ...platform.Fetcher) *Adapter {
	return newAdapter(Agoda, &agoda{base: "https://www.agoda.com"}, logger, fetchers)
}

func NewExpedia(logger zerolog.Logger, fetchers ...platform.Fetcher) *Adapter {
	return newAdapter(Expedia, &expedia{base: "https://www.expedia.com"}, logger, fetchers)
}

func newAdapter(name string, s site, logger zerolog.Logger, fetchers []platform.Fetcher) *Adapter {
	return &Adapter{
		name:     name,
		site:     s,
		fetchers: fetchers,
		log:      logger.With().Str("component", "ota").Str("provider", name).Logger(),
	}
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Search(ctx context.Context, q, city string, opts platform.SearchOpts) ([]models.Listing, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Stay.Currency == "" {
		opts.Stay.Currency = models.SettlementCurrency
	}
	pageURL := a.site.searchURL(q, opts)

	listings, err := load(ctx, a, pageURL, func(page string) ([]models.Listing, error) {
		return a.site.parseSearch(page, opts.Limit)
	})
	if err != nil {
		return nil, err
	}
	for i := range listings {
		l := &listings[i]
		l.Provider = a.name
		l.City = city
		l.Rank = i + 1
		l.Currency = opts.Stay.Currency
	}
	return listings, nil
}

func (a *Adapter) FetchUnits(ctx context.Context, listingURL string, maxRows int) ([]models.Unit, error) {
	if listingURL == "" {
		return nil, nil
	}
	return load(ctx, a, listingURL, func(page string) ([]models.Unit, error) {
		return a.site.parseUnits(page, maxRows)
	})
}

// load walks the fetcher chain. A fetched page that parses to nothing moves on to the
// next fetcher; if every fetcher got a page but none had items, the answer is empty.
func load[T any](ctx context.Context, a *Adapter, pageURL string, parse func(string) ([]T, error)) ([]T, error) {
	if len(a.fetchers) == 0 {
		return nil, errors.New("no fetchers configured")
	}
	var errs []error
	sawPage := false
	for _, f := range a.fetchers {
		page, err := f.Fetch(ctx, pageURL)
		if err != nil {
			a.log.Debug().Err(err).Str("strategy", f.Name()).Str("url", pageURL).Msg("fetch failed")
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		items, err := parse(page)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}
		if len(items) > 0 {
			platform.Progressf(ctx, "%s: %d items via %s", a.name, len(items), f.Name())
			return items, nil
		}
		sawPage = true
	}
	if sawPage {
		return nil, nil
	}
	return nil, errors.Join(errs...)
}

// searchText qualifies a query with the country so ambiguous names stay in Saudi Arabia.
func searchText(q string) string {
	if query.DetectLang(q) == query.Arabic {
		return q + " السعودية"
	}
	return q + ", Saudi Arabia"
}

// absURL resolves href against base; absolute hrefs pass through.
func absURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// textPrice reads a price element: the cheapest currency-tagged amount when there is
// one (struck-through rack rates sit next to the deal price), else the bare number.
func textPrice(text string) models.Price {
	if ps := pricing.ExtractPrices(text); len(ps) > 0 {
		return pricing.Lowest(ps)
	}
	return pricing.ParsePrice(text)
}
