package ranking

import (
	"fmt"
	"testing"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

func listing(name string, price int64) models.Listing {
	return models.Listing{
		Provider:    "Booking",
		Hotel:       name,
		LowestPrice: models.PriceFromInt(price),
		Currency:    models.SettlementCurrency,
	}
}

func TestSortByPriceUnknownLast(t *testing.T) {
	listings := []models.Listing{
		listing("a", 150),
		{Provider: "Booking", Hotel: "b"},
		listing("c", 80),
		listing("d", 110),
	}
	SortByPrice(listings)

	got := make([]string, 0, len(listings))
	for _, l := range listings {
		got = append(got, l.LowestPrice.String())
	}
	if fmt.Sprint(got) != "[80 110 150 -]" {
		t.Fatalf("order = %v, want [80 110 150 -]", got)
	}
}

func TestDedupKeepsCheaper(t *testing.T) {
	out := Dedup([]models.Listing{
		listing("Hotel Narcissus", 120),
		listing("Other", 300),
		listing("hotel narcissus", 95),
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(out))
	}
	if out[0].LowestPrice.String() != "95" {
		t.Fatalf("merged price = %s, want 95", out[0].LowestPrice)
	}
}

func TestDedupKnownBeatsUnknown(t *testing.T) {
	out := Dedup([]models.Listing{
		{Provider: "Agoda", Hotel: "X"},
		{Provider: "Agoda", Hotel: "X", LowestPrice: models.PriceFromInt(400)},
	})
	if len(out) != 1 || out[0].LowestPrice.String() != "400" {
		t.Fatalf("unexpected dedup result: %+v", out)
	}
}

func TestTruncateKeepsBrandPastCutoff(t *testing.T) {
	var listings []models.Listing
	for i := 0; i < 20; i++ {
		price := int64(100 + i*10)
		if i >= 17 {
			price += 10 // leave room for the brand at position 18
		}
		listings = append(listings, listing(fmt.Sprintf("Hotel %02d", i), price))
	}
	brand := listing("Al Eairy Apartments", 275)
	brand.IsTrackedBrand = true
	listings = append(listings, brand)

	out := Rank(listings, 15)
	if len(out) != 16 {
		t.Fatalf("expected 16 listings, got %d", len(out))
	}
	if !out[15].IsTrackedBrand {
		t.Fatalf("brand listing should be appended last, got %+v", out[15])
	}
	for _, l := range out[:15] {
		if l.IsTrackedBrand {
			t.Fatal("brand should not be inside the natural top 15")
		}
	}
}

func TestTruncateNoExtraWhenBrandInside(t *testing.T) {
	var listings []models.Listing
	for i := 0; i < 20; i++ {
		listings = append(listings, listing(fmt.Sprintf("Hotel %02d", i), int64(100+i)))
	}
	listings[3].IsTrackedBrand = true
	out := Rank(listings, 15)
	if len(out) != 15 {
		t.Fatalf("expected 15 listings, got %d", len(out))
	}
}

func TestSummarize(t *testing.T) {
	brand := listing("Al Eairy", 200)
	brand.IsTrackedBrand = true
	s := Summarize([]models.Listing{
		listing("a", 100),
		listing("b", 150),
		brand,
		{Provider: "Booking", Hotel: "d"},
	})
	if s.Count != 4 {
		t.Fatalf("count = %d", s.Count)
	}
	if s.Cheapest.String() != "100" || s.Median.String() != "150" {
		t.Fatalf("cheapest/median = %s/%s, want 100/150", s.Cheapest, s.Median)
	}
	if s.BrandRank != 3 || s.BrandPrice.String() != "200" {
		t.Fatalf("brand rank/price = %d/%s", s.BrandRank, s.BrandPrice)
	}

	empty := Summarize(nil)
	if empty.Cheapest.Known || empty.Median.Known || empty.BrandRank != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}
