package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/thewisemo/al-eairy-ota/config"
	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
)

// stubAdapter returns the same two hotels for any query.
type stubAdapter struct{ name string }

func (s stubAdapter) Name() string { return s.name }

func (s stubAdapter) Search(ctx context.Context, q, city string, opts platform.SearchOpts) ([]models.Listing, error) {
	return []models.Listing{
		{Provider: s.name, City: city, Rank: 1, Hotel: "Desert Inn", URL: "https://example.test/desert", LowestPrice: models.PriceFromInt(300)},
		{Provider: s.name, City: city, Rank: 2, Hotel: "Al Eairy Apartments " + city, URL: "https://example.test/ae", LowestPrice: models.PriceFromInt(210)},
	}, nil
}

func (s stubAdapter) FetchUnits(ctx context.Context, url string, maxRows int) ([]models.Unit, error) {
	return nil, nil
}

func testApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Store.Dir = filepath.Join(dir, "data")
	cfg.Report.OutDir = filepath.Join(dir, "report")
	return NewApp(cfg, zerolog.Nop())
}

func TestRunDateUsesRunTimezone(t *testing.T) {
	a := testApp(t)
	// 22:30 UTC is already the next day in Riyadh.
	got := a.RunDate(time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC))
	if got.Format(models.DateLayout) != "2025-03-15" {
		t.Fatalf("run date = %v", got)
	}
	stay := a.Stay(got)
	if stay.CheckIn.Format(models.DateLayout) != "2025-03-16" || stay.Nights() != 1 {
		t.Fatalf("stay = %+v", stay)
	}
}

func TestScrapeWritesSnapshotAndReport(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	res, err := a.Scrape(ctx, ScrapeOptions{
		Cities:    []string{"Riyadh", "Tabuk"},
		SkipUnits: true,
		Now:       now,
		adapters:  []platform.Adapter{stubAdapter{name: "Booking"}},
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if filepath.Base(res.Path) != "al-eairy-ota-2025-03-15.json" {
		t.Errorf("path = %s", res.Path)
	}
	riyadh, ok := res.Snapshot.City("Riyadh")
	if !ok {
		t.Fatal("Riyadh missing")
	}
	listings, _ := riyadh.Providers.Get("Booking")
	if len(listings) != 2 || !listings[0].IsTrackedBrand || listings[0].LowestPrice.String() != "210" {
		t.Fatalf("listings = %+v", listings)
	}

	rep, err := a.Report(ctx, ReportOptions{Now: now})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	lines := rep.Report.Summary()
	if len(lines) != 2 || lines[0] != "• Riyadh: Al Eairy price 210 SAR, position 2; median 300." {
		t.Fatalf("summary = %q", lines)
	}
	csv, err := os.ReadFile(rep.Artifacts.CSV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(csv), "2025-03-14,Tabuk,Booking,2,Al Eairy Apartments Tabuk") {
		t.Errorf("csv missing Tabuk brand row:\n%s", csv)
	}
	if rep.Notified {
		t.Error("notified without telegram configured")
	}
}

// cancelAdapter cancels the run as soon as it is searched.
type cancelAdapter struct {
	stubAdapter
	cancel context.CancelFunc
}

func (c cancelAdapter) Search(ctx context.Context, q, city string, opts platform.SearchOpts) ([]models.Listing, error) {
	c.cancel()
	return c.stubAdapter.Search(ctx, q, city, opts)
}

func TestInterruptedScrapeKeepsLatest(t *testing.T) {
	a := testApp(t)
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	cities := []string{"Riyadh", "Jeddah", "Tabuk"}

	full, err := a.Scrape(context.Background(), ScrapeOptions{
		Cities: cities, SkipUnits: true, Now: now,
		adapters: []platform.Adapter{stubAdapter{name: "Booking"}},
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = a.Scrape(ctx, ScrapeOptions{
		Cities: cities, SkipUnits: true, Now: now.Add(24 * time.Hour),
		adapters: []platform.Adapter{cancelAdapter{stubAdapter: stubAdapter{name: "Booking"}, cancel: cancel}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	latest, err := a.Store().ReadLatest()
	if err != nil {
		t.Fatalf("ReadLatest: %v", err)
	}
	if latest.RunID != full.Snapshot.RunID || len(latest.Cities) != len(cities) {
		t.Fatalf("latest = run %s with %d cities, want run %s with %d", latest.RunID, len(latest.Cities), full.Snapshot.RunID, len(cities))
	}
	if _, err := os.Stat(a.Store().DatedPath("2025-03-16")); !os.IsNotExist(err) {
		t.Errorf("interrupted run left a dated file: %v", err)
	}
}

func TestReportMissingSourceFails(t *testing.T) {
	a := testApp(t)
	if _, err := a.Report(context.Background(), ReportOptions{NoFiles: true}); err == nil {
		t.Fatal("expected error without a snapshot")
	}
}

func TestExpanderUsesConfiguredOrder(t *testing.T) {
	a := testApp(t)
	a.Config.Query.LangOrder = []string{"ar", "en"}
	exp, err := a.Expander()
	if err != nil {
		t.Fatal(err)
	}
	got := exp.Expand("Tabuk", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	if len(got) == 0 || got[0] != "تبوك" {
		t.Fatalf("expand = %q", got)
	}
}
