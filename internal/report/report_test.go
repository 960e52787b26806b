package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/thewisemo/al-eairy-ota/internal/httputil"
	"github.com/thewisemo/al-eairy-ota/internal/models"
)

func listing(provider, hotel string, rank int, price int64, brand bool) models.Listing {
	return models.Listing{
		Provider: provider, City: "Riyadh", Rank: rank, Hotel: hotel,
		URL: "https://example.com/" + strings.ReplaceAll(hotel, " ", "-"), LowestPrice: models.PriceFromInt(price),
		Currency: "SAR", IsTrackedBrand: brand, Units: []models.Unit{},
	}
}

func fixture() *models.RunSnapshot {
	brand := listing("Booking", "Al Eairy Olaya", 3, 250, true)
	brand.Units = []models.Unit{
		{Name: "Studio", Price: models.PriceFromInt(250), Cancellable: models.PriceFromInt(280)},
		{Name: "One Bedroom", Price: models.PriceFromInt(320), NonRefundable: models.PriceFromInt(300)},
	}
	return &models.RunSnapshot{
		Date: "2025-03-14", CheckIn: "2025-03-15", CheckOut: "2025-03-16",
		Cities: []models.CityResult{
			{City: "Riyadh", Providers: models.ProviderResults{
				{Provider: "Booking", Listings: []models.Listing{
					listing("Booking", "Budget Inn", 1, 180, false),
					brand,
					listing("Booking", "Grand Palace", 2, 400, false),
				}},
				{Provider: "Agoda", Listings: []models.Listing{
					listing("Agoda", "Budget Inn", 1, 175, false),
				}},
			}},
			{City: "Tabuk", Providers: models.ProviderResults{
				{Provider: "Booking", Listings: []models.Listing{
					listing("Booking", "Tabuk Tower", 1, 300, false),
					listing("Booking", "Desert Rose", 2, 200, false),
				}},
			}},
		},
	}
}

func TestSummaryLines(t *testing.T) {
	rep := Build(fixture(), Options{})
	got := rep.Summary()
	want := []string{
		"• Riyadh: Al Eairy price 250 SAR, position 3; median 250.",
		"• Tabuk: Al Eairy not shown; median 300.",
	}
	if len(got) != len(want) {
		t.Fatalf("summary = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !strings.Contains(rep.Text(), "check-in 2025-03-15") {
		t.Errorf("text = %q", rep.Text())
	}
}

func TestOnlyBrandCities(t *testing.T) {
	rep := Build(fixture(), Options{OnlyBrandCities: true})
	if len(rep.Lines) != 1 || rep.Lines[0].City != "Riyadh" {
		t.Fatalf("lines = %+v", rep.Lines)
	}
	for _, row := range rep.Rows {
		if row[1] == "Tabuk" {
			t.Fatalf("Tabuk row leaked: %v", row)
		}
	}
}

func TestCSVRows(t *testing.T) {
	rep := Build(fixture(), Options{Date: "2025-03-14"})
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rep); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if strings.Join(records[0], ",") != strings.Join(Header, ",") {
		t.Fatalf("header = %v", records[0])
	}
	rows := records[1:]

	// Riyadh/Booking: 1 + 2 units + 1; Riyadh/Agoda: 1 + placeholder; Tabuk: 2 + placeholder.
	if len(rows) != 9 {
		t.Fatalf("rows = %d, want 9:\n%v", len(rows), rows)
	}
	studio := rows[1]
	if studio[4] != "Al Eairy Olaya" || studio[9] != "Studio" || studio[10] != "250" || studio[11] != "280" || studio[12] != "" || studio[13] != "Yes" {
		t.Errorf("unit row = %v", studio)
	}
	placeholder := rows[5]
	if placeholder[2] != "Agoda" || placeholder[4] != "Al Eairy (not in top)" || placeholder[3] != "" || placeholder[6] != "" {
		t.Errorf("placeholder = %v", placeholder)
	}
	if last := rows[len(rows)-1]; last[1] != "Tabuk" || last[13] != "Yes" {
		t.Errorf("last row = %v", last)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	rep := Build(fixture(), Options{})
	art, err := WriteArtifacts(context.Background(), rep, dir, "al-eairy-ota")
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	if filepath.Base(art.CSV) != "al-eairy-ota-2025-03-15.csv" {
		t.Errorf("csv path = %s", art.CSV)
	}
	png, err := os.ReadFile(art.Chart)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}
	summary, err := os.ReadFile(art.Summary)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(summary), "• Riyadh:") {
		t.Errorf("summary = %q", summary)
	}
}

func TestWriteArtifactsSkipsEmptyChart(t *testing.T) {
	dir := t.TempDir()
	snap := fixture()
	snap.Cities = snap.Cities[1:]
	art, err := WriteArtifacts(context.Background(), Build(snap, Options{}), dir, "x")
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	if art.Chart != "" {
		t.Errorf("chart = %q, want none", art.Chart)
	}
	if _, err := os.Stat(filepath.Join(dir, "x-2025-03-15.png")); !os.IsNotExist(err) {
		t.Errorf("stale chart file left behind: %v", err)
	}
}

func TestWriteArtifactsSingleCity(t *testing.T) {
	dir := t.TempDir()
	snap := fixture()
	snap.Cities = snap.Cities[:1]
	snap.Cities[0].Providers = snap.Cities[0].Providers[:1]
	snap.Cities[0].Providers[0].Listings = []models.Listing{
		listing("Booking", "Al Eairy Olaya", 1, 250, true),
		listing("Booking", "Grand Palace", 2, 300, false),
	}
	rep := Build(snap, Options{OnlyBrandCities: true}).Filter("Riyadh")
	art, err := WriteArtifacts(context.Background(), rep, dir, "al-eairy-ota")
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	if art.ChartErr != nil {
		t.Fatalf("chart error: %v", art.ChartErr)
	}
	png, err := os.ReadFile(art.Chart)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}
	if _, err := os.Stat(art.CSV); err != nil {
		t.Errorf("csv missing: %v", err)
	}
}

func TestWriteChartEqualPrices(t *testing.T) {
	rep := &Report{Brand: "Al Eairy", CheckIn: "2025-03-15", Lines: []CityLine{{
		City: "Riyadh", HasBrand: true,
		BrandPrice: models.PriceFromInt(250), Median: models.PriceFromInt(250),
	}}}
	var buf bytes.Buffer
	if err := WriteChart(&buf, rep); err != nil {
		t.Fatalf("WriteChart: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}
}

func TestSourceLoadHTTP(t *testing.T) {
	body, err := json.Marshal(fixture())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest.json" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	snap, err := Source{Location: srv.URL + "/latest.json"}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Cities) != 2 || snap.CheckIn != "2025-03-15" {
		t.Errorf("snapshot = %+v", snap)
	}

	_, err = Source{Location: srv.URL + "/missing.json"}.Load(context.Background())
	var se *httputil.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
}

func TestSourceLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")
	body, _ := json.Marshal(fixture())
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := Source{Location: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Cities[0].Providers.Names()[1] != "Agoda" {
		t.Errorf("provider order lost: %v", snap.Cities[0].Providers.Names())
	}
}

func TestTelegramNotifier(t *testing.T) {
	var got []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		got = append(got, payload)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := n.Notify(context.Background(), Build(fixture(), Options{}).Text()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(got) != 1 || got[0]["chat_id"] != "chat" || !strings.Contains(got[0]["text"], "Riyadh") {
		t.Fatalf("payloads = %v", got)
	}
}

func TestTelegramNotifierNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := n.Notify(context.Background(), "hi"); err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("• مدينة: line\n", 20)
	parts := splitMessage(text, 64)
	if strings.Join(parts, "") != text {
		t.Fatal("split lost text")
	}
	for _, p := range parts {
		if len(p) > 64 {
			t.Errorf("part too long: %d", len(p))
		}
	}
}
