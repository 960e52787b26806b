package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/ranking"
)

// Header is the CSV column layout.
var Header = []string{
	"Date", "City", "Platform", "Rank", "Hotel", "DirectURL", "LowestPrice", "Currency",
	"TaxesIncluded", "Unit", "UnitPrice", "CheapestCancellable", "CheapestNonRefund", "IsTrackedBrand",
}

type Options struct {
	// Brand is the display name used in placeholder rows and summary lines.
	Brand string
	// Date stamps every CSV row; empty uses the snapshot date.
	Date string
	// OnlyBrandCities hides cities where no provider shows the brand.
	OnlyBrandCities bool
}

// CityLine is the per-city headline figure.
type CityLine struct {
	City       string
	Provider   string
	HasBrand   bool
	BrandPrice models.Price
	BrandPos   int
	Median     models.Price
}

// Report is the rendered view of one snapshot.
type Report struct {
	Brand    string
	Date     string
	CheckIn  string
	CheckOut string
	Lines    []CityLine
	Rows     [][]string
}

// Build renders snap. Cities keep snapshot order; rows follow provider order then
// the reported listing order.
func Build(snap *models.RunSnapshot, opts Options) *Report {
	if opts.Brand == "" {
		opts.Brand = "Al Eairy"
	}
	date := opts.Date
	if date == "" {
		date = snap.Date
	}
	rep := &Report{Brand: opts.Brand, Date: date, CheckIn: snap.CheckIn, CheckOut: snap.CheckOut}

	for _, c := range snap.Cities {
		if opts.OnlyBrandCities && !c.HasBrand() {
			continue
		}
		rep.Lines = append(rep.Lines, headline(c))
		for _, pr := range c.Providers {
			rep.Rows = append(rep.Rows, providerRows(date, c.City, pr, opts.Brand)...)
		}
	}
	return rep
}

// headline picks the first provider showing the brand, else the first provider.
func headline(c models.CityResult) CityLine {
	line := CityLine{City: c.City}
	if len(c.Providers) == 0 {
		return line
	}
	pick := c.Providers[0]
	for _, pr := range c.Providers {
		if hasBrand(pr.Listings) {
			pick = pr
			break
		}
	}
	line.Provider = pick.Provider
	sum := ranking.Summarize(pick.Listings)
	line.Median = sum.Median
	for i, l := range pick.Listings {
		if !l.IsTrackedBrand {
			continue
		}
		line.HasBrand = true
		line.BrandPrice = l.LowestPrice
		line.BrandPos = l.Rank
		if line.BrandPos == 0 {
			line.BrandPos = i + 1
		}
		break
	}
	return line
}

func providerRows(date, city string, pr models.ProviderResult, brand string) [][]string {
	var rows [][]string
	for _, l := range pr.Listings {
		base := []string{
			date, city, pr.Provider, rankCell(l.Rank), l.Hotel, l.URL,
			priceCell(l.LowestPrice), currency(l.Currency), "",
		}
		if len(l.Units) == 0 {
			rows = append(rows, append(base, "", "", "", "", yesNo(l.IsTrackedBrand)))
			continue
		}
		for _, u := range l.Units {
			row := append(append([]string(nil), base...),
				u.Name, priceCell(u.Price), priceCell(u.Cancellable), priceCell(u.NonRefundable),
				yesNo(l.IsTrackedBrand))
			rows = append(rows, row)
		}
	}
	if !hasBrand(pr.Listings) {
		rows = append(rows, []string{
			date, city, pr.Provider, "", brand + " (not in top)", "", "", models.SettlementCurrency,
			"", "", "", "", "", "Yes",
		})
	}
	return rows
}

// Summary renders one line per city.
func (r *Report) Summary() []string {
	out := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		median := "—"
		if l.Median.Known {
			median = l.Median.String()
		}
		if !l.HasBrand {
			out = append(out, fmt.Sprintf("• %s: %s not shown; median %s.", l.City, r.Brand, median))
			continue
		}
		price := "—"
		if l.BrandPrice.Known {
			price = l.BrandPrice.String()
		}
		out = append(out, fmt.Sprintf("• %s: %s price %s %s, position %d; median %s.",
			l.City, r.Brand, price, models.SettlementCurrency, l.BrandPos, median))
	}
	return out
}

// Text is the message body delivered to chat channels.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: daily OTA price scan (2 adults, 1 night, check-in %s)\n\n", r.Brand, r.CheckIn)
	if len(r.Lines) == 0 {
		b.WriteString("No cities to report.\n")
		return b.String()
	}
	for _, line := range r.Summary() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func hasBrand(listings []models.Listing) bool {
	for _, l := range listings {
		if l.IsTrackedBrand {
			return true
		}
	}
	return false
}

func rankCell(rank int) string {
	if rank <= 0 {
		return ""
	}
	return strconv.Itoa(rank)
}

func priceCell(p models.Price) string {
	if !p.Known {
		return ""
	}
	return p.String()
}

func currency(c string) string {
	if c == "" {
		return models.SettlementCurrency
	}
	return c
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
