package models

import (
	"strings"
)

// SettlementCurrency is the single currency every listing price is expressed in.
const SettlementCurrency = "SAR"

// DateLayout is the calendar-date format used in snapshot fields and artifact keys.
const DateLayout = "2006-01-02"

// Unit is one room or rate offer inside a listing.
type Unit struct {
	Name          string `json:"name"`
	Price         Price  `json:"price"`
	Cancellable   Price  `json:"cancellable"`
	NonRefundable Price  `json:"nonRefundable"`
}

// Listing is one hotel's offer from one provider for one city and stay date.
type Listing struct {
	Provider       string `json:"platform"`
	City           string `json:"city"`
	Rank           int    `json:"rank,omitempty"`
	Hotel          string `json:"hotel"`
	URL            string `json:"url"`
	LowestPrice    Price  `json:"lowestPrice"`
	Currency       string `json:"currency"`
	IsTrackedBrand bool   `json:"isTrackedBrand"`
	// Guaranteed marks a brand listing pulled in by the brand-targeted search.
	Guaranteed bool   `json:"guaranteed,omitempty"`
	Units      []Unit `json:"units"`
}

// Key is the deduplication identity of a listing: provider plus normalized hotel name.
func (l Listing) Key() string {
	return l.Provider + "\x00" + NormalizeName(l.Hotel)
}

// NormalizeName lowercases a hotel name and collapses internal whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ProviderSummary holds per-provider statistics for one city.
type ProviderSummary struct {
	Count      int   `json:"count"`
	Cheapest   Price `json:"cheapest"`
	Median     Price `json:"median"`
	BrandRank  int   `json:"brandRank,omitempty"`
	BrandPrice Price `json:"brandPrice"`
}

// CityResult is the aggregation output for one city across all providers.
type CityResult struct {
	City      string                     `json:"city"`
	Providers ProviderResults            `json:"providers"`
	Summary   map[string]ProviderSummary `json:"summary,omitempty"`
	// Notes carries per-provider diagnostics; serialized under the snapshot meta.
	Notes map[string]string `json:"-"`
}

// HasBrand reports whether any provider list for the city holds a tracked-brand listing.
func (c CityResult) HasBrand() bool {
	for _, pr := range c.Providers {
		for _, l := range pr.Listings {
			if l.IsTrackedBrand {
				return true
			}
		}
	}
	return false
}

// RunSnapshot is one complete aggregation run.
type RunSnapshot struct {
	RunID    string                       `json:"runId"`
	Date     string                       `json:"date"`
	CheckIn  string                       `json:"checkIn"`
	CheckOut string                       `json:"checkOut"`
	Currency string                       `json:"currency"`
	Cities   []CityResult                 `json:"cities"`
	Meta     map[string]map[string]string `json:"meta"`
}

// City returns the result for the named city, matched case-insensitively.
func (s *RunSnapshot) City(name string) (CityResult, bool) {
	want := NormalizeName(name)
	for _, c := range s.Cities {
		if NormalizeName(c.City) == want {
			return c, true
		}
	}
	return CityResult{}, false
}

// Note returns the diagnostic recorded for a city and provider, if any.
func (s *RunSnapshot) Note(city, provider string) string {
	if s.Meta == nil {
		return ""
	}
	return s.Meta[city][provider]
}
