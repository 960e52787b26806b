package ranking

import (
	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// Summarize computes count, cheapest, upper median and the brand's position for a
// provider's final list. The list is expected in reported order.
func Summarize(listings []models.Listing) models.ProviderSummary {
	s := models.ProviderSummary{Count: len(listings)}

	known := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.LowestPrice.Known {
			known = append(known, l)
		}
	}
	if len(known) > 0 {
		SortByPrice(known)
		s.Cheapest = known[0].LowestPrice
		s.Median = known[len(known)/2].LowestPrice
	}

	for i, l := range listings {
		if l.IsTrackedBrand {
			s.BrandRank = i + 1
			s.BrandPrice = l.LowestPrice
			break
		}
	}
	return s
}
