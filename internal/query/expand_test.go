package query

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"
)

var runDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func TestExpandIsStableForADay(t *testing.T) {
	e := NewExpander(DefaultTable(), DefaultOptions())
	first := e.Expand("Jeddah", runDay)
	second := e.Expand("Jeddah", runDay)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs gave %v then %v", first, second)
	}
}

func TestExpandUnknownCity(t *testing.T) {
	e := NewExpander(DefaultTable(), DefaultOptions())
	got := e.Expand("Atlantis", runDay)
	if !reflect.DeepEqual(got, []string{"Atlantis"}) {
		t.Fatalf("got %v", got)
	}

	var nilTable *Table
	got = NewExpander(nilTable, Options{}).Expand("Riyadh", runDay)
	if !reflect.DeepEqual(got, []string{"Riyadh"}) {
		t.Fatalf("nil table: got %v", got)
	}
}

func TestExpandPrefersEnglishThenArabic(t *testing.T) {
	e := NewExpander(DefaultTable(), DefaultOptions())
	got := e.Expand("Riyadh", runDay)

	firstArabic := slices.IndexFunc(got, func(s string) bool { return DetectLang(s) == Arabic })
	if firstArabic < 0 {
		t.Fatalf("no Arabic candidate in %v", got)
	}
	for _, s := range got[:firstArabic] {
		if DetectLang(s) != English {
			t.Fatalf("unexpected order %v", got)
		}
	}
	for _, s := range got[firstArabic:] {
		if DetectLang(s) != Arabic {
			t.Fatalf("languages interleaved: %v", got)
		}
	}
	for _, want := range []string{"Riyadh", "Ar Riyadh", "Riyadh hotel apartments", "الرياض", "الرياض شقق فندقية"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing %q in %v", want, got)
		}
	}
}

func TestExpandArabicOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.LangOrder = []Lang{Arabic, English}
	got := NewExpander(DefaultTable(), opts).Expand("Dammam", runDay)
	if DetectLang(got[0]) != Arabic {
		t.Fatalf("want Arabic first, got %v", got)
	}
}

func TestExpandLooksUpAnySpelling(t *testing.T) {
	e := NewExpander(DefaultTable(), DefaultOptions())
	got := e.Expand("مكة", runDay)
	if !slices.Contains(got, "Makkah") || !slices.Contains(got, "مكة المكرمة") {
		t.Fatalf("got %v", got)
	}
}

func TestExpandNoDuplicates(t *testing.T) {
	e := NewExpander(DefaultTable(), DefaultOptions())
	got := e.Expand("al khobar", runDay)
	seen := map[string]bool{}
	for _, s := range got {
		if seen[s] {
			t.Fatalf("duplicate %q in %v", s, got)
		}
		seen[s] = true
	}
}

func TestExpandRotatesAcrossDays(t *testing.T) {
	e := NewExpander(DefaultTable(), DefaultOptions())
	firsts := map[string]bool{}
	for i := 0; i < 30; i++ {
		got := e.Expand("Jeddah", runDay.AddDate(0, 0, i))
		firsts[got[0]] = true
	}
	if len(firsts) < 2 {
		t.Fatalf("leading candidate never rotated: %v", firsts)
	}
}

func TestBrandQueries(t *testing.T) {
	e := NewExpander(DefaultTable(), DefaultOptions())
	brand := map[Lang][]string{
		English: {"Al Eairy"},
		Arabic:  {"العييري"},
	}
	got := e.BrandQueries(brand, "Tabuk", runDay)
	want := []string{"Al Eairy Tabuk", "العييري تبوك"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got = e.BrandQueries(brand, "Atlantis", runDay)
	want = []string{"Al Eairy Atlantis", "العييري Atlantis"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unknown city: got %v, want %v", got, want)
	}
}

func TestLoadSynonyms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	body := "Ula:\n  en: [AlUla, Al Ula]\n  ar: [العلا]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadSynonyms(path)
	if err != nil {
		t.Fatalf("LoadSynonyms: %v", err)
	}
	sp, ok := table.Lookup("al ula")
	if !ok || !reflect.DeepEqual(sp[Arabic], []string{"العلا"}) {
		t.Fatalf("lookup = %v, %v", sp, ok)
	}

	base := DefaultTable()
	base.Merge(table)
	if _, ok := base.Lookup("AlUla"); !ok {
		t.Fatal("merged entry not found")
	}
	if _, ok := base.Lookup("Riyadh"); !ok {
		t.Fatal("merge dropped existing entries")
	}
}

func TestLoadCities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.txt")
	body := "# tracked cities\nRiyadh\n\n  Jeddah  \nRiyadh\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cities, fellBack, err := LoadCities(path)
	if err != nil || fellBack {
		t.Fatalf("LoadCities: %v, fallback=%v", err, fellBack)
	}
	if !reflect.DeepEqual(cities, []string{"Riyadh", "Jeddah"}) {
		t.Fatalf("cities = %v", cities)
	}

	cities, fellBack, err = LoadCities(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil || !fellBack || len(cities) != len(FallbackCities) {
		t.Fatalf("missing file: %v %v %d", err, fellBack, len(cities))
	}
}

func TestLoadCitiesStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.txt")
	if err := os.WriteFile(path, []byte("\uFEFFRiyadh\nJeddah\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cities, _, err := LoadCities(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cities, []string{"Riyadh", "Jeddah"}) {
		t.Fatalf("cities = %q", cities)
	}
}
