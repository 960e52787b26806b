package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// printSnapshot prints every city (or only city) as ranked cards per provider.
func printSnapshot(w io.Writer, snap *models.RunSnapshot, city string) {
	fmt.Fprintf(w, "Run %s  check-in %s  check-out %s\n", snap.Date, snap.CheckIn, snap.CheckOut)
	for _, c := range snap.Cities {
		if city != "" && models.NormalizeName(c.City) != models.NormalizeName(city) {
			continue
		}
		fmt.Fprintf(w, "\n== %s ==\n", c.City)
		for _, pr := range c.Providers {
			printProvider(w, pr, snap.Note(c.City, pr.Provider))
		}
	}
}

func printProvider(w io.Writer, pr models.ProviderResult, note string) {
	fmt.Fprintf(w, "\n  %s", pr.Provider)
	if note != "" {
		fmt.Fprintf(w, "  (%s)", truncate(note, 60))
	}
	fmt.Fprintln(w)
	if len(pr.Listings) == 0 {
		fmt.Fprintln(w, "    not available")
		return
	}
	for i, l := range pr.Listings {
		name := truncate(l.Hotel, 48)
		if l.IsTrackedBrand {
			name = "★ " + name
		}
		rank := "-"
		if l.Rank > 0 {
			rank = fmt.Sprintf("#%d", l.Rank)
		}
		fmt.Fprintf(w, "  %2d. %-50s %12s  %s\n", i+1, name, formatPrice(l.LowestPrice), rank)
		if len(l.Units) > 0 {
			var parts []string
			for _, u := range l.Units {
				parts = append(parts, fmt.Sprintf("%s %s", truncate(u.Name, 24), formatPrice(u.Price)))
			}
			fmt.Fprintf(w, "      %s\n", strings.Join(parts, " | "))
		}
		if l.URL != "" {
			fmt.Fprintf(w, "      %s\n", cleanURL(l.URL))
		}
	}
}

// formatPrice formats a price as "SAR 1,234.50"; unknown prices print as "n/a".
func formatPrice(p models.Price) string {
	if !p.Known {
		return "n/a"
	}
	s := p.Amount.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")
	whole, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)
	out := strings.Join(parts, ",")
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return models.SettlementCurrency + " " + out
}

// cleanURL strips tracking query params and returns just the hotel page URL.
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
