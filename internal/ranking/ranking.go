// Package ranking orders, deduplicates and cuts provider listing sets.
package ranking

import (
	"slices"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// DefaultMaxPerProvider is the cutoff applied when none is configured.
const DefaultMaxPerProvider = 15

// SortByPrice orders listings by ascending lowest price with unknown prices last.
// The sort is stable, so provider rank breaks ties.
func SortByPrice(listings []models.Listing) {
	slices.SortStableFunc(listings, func(a, b models.Listing) int {
		return models.ComparePrice(a.LowestPrice, b.LowestPrice)
	})
}

// Dedup collapses listings that share a provider and hotel name, keeping the
// cheaper one. First-seen order is preserved.
func Dedup(listings []models.Listing) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	index := make(map[string]int, len(listings))
	for _, l := range listings {
		key := l.Key()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, l)
			continue
		}
		if models.ComparePrice(l.LowestPrice, out[i].LowestPrice) < 0 {
			guaranteed := out[i].Guaranteed || l.Guaranteed
			out[i] = l
			out[i].Guaranteed = guaranteed
		}
	}
	return out
}

// Truncate keeps the first max entries of a price-sorted slice. When none of the kept
// entries is a tracked-brand listing, the cheapest brand listing past the cutoff is
// retained as an extra entry.
func Truncate(sorted []models.Listing, max int) []models.Listing {
	if max <= 0 || len(sorted) <= max {
		return sorted
	}

	kept := append([]models.Listing(nil), sorted[:max]...)
	if slices.ContainsFunc(kept, isBrand) {
		return kept
	}
	if i := slices.IndexFunc(sorted[max:], isBrand); i >= 0 {
		kept = append(kept, sorted[max+i])
	}
	return kept
}

// Rank runs dedup, price ordering and truncation in one pass.
func Rank(listings []models.Listing, max int) []models.Listing {
	out := Dedup(listings)
	SortByPrice(out)
	return Truncate(out, max)
}

func isBrand(l models.Listing) bool { return l.IsTrackedBrand }
