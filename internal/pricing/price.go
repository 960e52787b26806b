// Package pricing turns raw price text into canonical prices and decides which
// listings belong to the tracked brand.
package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// digitFolder maps Arabic-Indic and Eastern Arabic-Indic digits plus Arabic
// separators onto their ASCII forms.
var digitFolder = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٫", ".", "٬", ",",
)

// currencyAmount matches an amount prefixed by the settlement currency in any of its spellings.
var currencyAmount = regexp.MustCompile(`(?i)(?:SAR|ر\.س|ريال)[^0-9]*([0-9][0-9.,]*)`)

// ParsePrice keeps only digits and separators, drops thousands separators and parses
// the rest as a decimal. Anything it cannot read comes back as an unknown price.
func ParsePrice(text string) models.Price {
	text = digitFolder.Replace(text)

	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		}
	}

	s := strings.Trim(b.String(), ".")
	if s == "" || strings.Count(s, ".") > 1 {
		return models.Price{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return models.Price{}
	}
	return models.KnownPrice(d)
}

// ExtractPrices returns every currency-tagged amount found in text, in order of appearance.
func ExtractPrices(text string) []models.Price {
	text = digitFolder.Replace(text)
	matches := currencyAmount.FindAllStringSubmatch(text, -1)
	out := make([]models.Price, 0, len(matches))
	for _, m := range matches {
		if p := ParsePrice(m[1]); p.Known {
			out = append(out, p)
		}
	}
	return out
}

// Lowest returns the cheapest known price in prices, or an unknown price if there is none.
func Lowest(prices []models.Price) models.Price {
	var low models.Price
	for _, p := range prices {
		low = models.MinPrice(low, p)
	}
	return low
}
