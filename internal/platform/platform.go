package platform

import (
	"context"
	"time"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// Stay describes the booking every search of a run prices.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Rooms    int
	Currency string
}

// Nights returns the length of the stay.
func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// NewStay starts offset days after runDate and lasts nights nights.
func NewStay(runDate time.Time, offset, nights int) Stay {
	if nights <= 0 {
		nights = 1
	}
	day := time.Date(runDate.Year(), runDate.Month(), runDate.Day(), 0, 0, 0, 0, time.UTC)
	in := day.AddDate(0, 0, offset)
	return Stay{
		CheckIn:  in,
		CheckOut: in.AddDate(0, 0, nights),
		Adults:   2,
		Rooms:    1,
		Currency: models.SettlementCurrency,
	}
}

type SearchOpts struct {
	Stay  Stay
	Limit int
}

// Adapter is one OTA source. Adapters built on the same Fetcher share its page and
// must not be called concurrently.
type Adapter interface {
	Name() string
	// Search returns at most opts.Limit listings for query, ranked as the provider
	// shows them. An empty slice with a nil error means the provider had nothing.
	Search(ctx context.Context, query, city string, opts SearchOpts) ([]models.Listing, error)
	// FetchUnits reads room/rate rows from a listing's detail page.
	FetchUnits(ctx context.Context, listingURL string, maxRows int) ([]models.Unit, error)
}

// Fetcher loads a page and returns its HTML.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) (string, error)
}
