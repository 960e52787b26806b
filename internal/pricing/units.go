package pricing

import (
	"regexp"
	"strings"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

var (
	freeCancellation = regexp.MustCompile(`(?i)free cancellation|إلغاء مجاني`)
	nonRefundable    = regexp.MustCompile(`(?i)non-refundable|غير قابل للاسترداد`)
)

// UnitRow is one raw room/rate row scraped from a detail page.
type UnitRow struct {
	Name             string
	Prices           []models.Price
	FreeCancellation bool
	NonRefundable    bool
}

// RowFromText builds a row from a room name and the text of the block describing it.
func RowFromText(name, text string) UnitRow {
	return UnitRow{
		Name:             strings.TrimSpace(name),
		Prices:           ExtractPrices(text),
		FreeCancellation: freeCancellation.MatchString(text),
		NonRefundable:    nonRefundable.MatchString(text),
	}
}

// RowWithPrices builds a row whose prices were read from structured data; text is
// only scanned for the cancellation flags.
func RowWithPrices(name string, prices []models.Price, text string) UnitRow {
	return UnitRow{
		Name:             strings.TrimSpace(name),
		Prices:           prices,
		FreeCancellation: freeCancellation.MatchString(text),
		NonRefundable:    nonRefundable.MatchString(text),
	}
}

// BuildUnits turns at most max rows into units. Rows without any known price are
// skipped; rows sharing a name are merged keeping the minimum price and the minimum
// cancellable and non-refundable prices.
func BuildUnits(rows []UnitRow, max int) []models.Unit {
	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}

	units := make([]models.Unit, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		low := Lowest(row.Prices)
		if !low.Known {
			continue
		}
		name := row.Name
		if name == "" {
			name = "Room"
		}

		u := models.Unit{Name: name, Price: low}
		if row.FreeCancellation {
			u.Cancellable = low
		}
		if row.NonRefundable {
			u.NonRefundable = low
		}

		key := models.NormalizeName(name)
		if i, ok := index[key]; ok {
			existing := &units[i]
			existing.Price = models.MinPrice(existing.Price, u.Price)
			existing.Cancellable = models.MinPrice(existing.Cancellable, u.Cancellable)
			existing.NonRefundable = models.MinPrice(existing.NonRefundable, u.NonRefundable)
			continue
		}
		index[key] = len(units)
		units = append(units, u)
	}
	return units
}
