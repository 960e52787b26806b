// Package query expands a city name into the ordered list of search strings tried
// against each provider.
package query

import (
	"hash/fnv"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// Options tune expansion.
type Options struct {
	// LangOrder lists preferred index languages first.
	LangOrder []Lang
	// Suffixes are descriptive qualifiers appended to each spelling of a language.
	Suffixes map[Lang][]string
	// Seed perturbs the daily rotation.
	Seed string
}

// DefaultOptions prefers English, which most OTA search indexes answer more reliably.
func DefaultOptions() Options {
	return Options{
		LangOrder: []Lang{English, Arabic},
		Suffixes: map[Lang][]string{
			English: {"hotel apartments"},
			Arabic:  {"شقق فندقية"},
		},
	}
}

// Expander produces query candidates for cities.
type Expander struct {
	table *Table
	opts  Options
}

// NewExpander builds an expander over table. A nil table expands every city to itself.
func NewExpander(table *Table, opts Options) *Expander {
	if len(opts.LangOrder) == 0 {
		opts.LangOrder = DefaultOptions().LangOrder
	}
	return &Expander{table: table, opts: opts}
}

// Expand returns the candidates for city on the given run date. Preferred languages
// come first; inside a language the spellings are rotated by a key derived from
// city, date and seed so the first candidate varies between days but not between
// calls on the same day. Cities missing from the table expand to themselves.
func (e *Expander) Expand(city string, date time.Time) []string {
	groups, ok := e.spellings(city, date)
	if !ok {
		return []string{city}
	}

	var out candidateSet
	for _, lang := range e.langs(groups) {
		names := groups[lang]
		out.add(names...)
		for _, suffix := range e.opts.Suffixes[lang] {
			for _, n := range names {
				out.add(n + " " + suffix)
			}
		}
	}
	if len(out.items) == 0 {
		return []string{city}
	}
	return out.items
}

// BrandQueries combines each brand name with the city spellings of the same language,
// walking languages in preference order. Languages without a spelling for the city
// fall back to the city name as given.
func (e *Expander) BrandQueries(brand map[Lang][]string, city string, date time.Time) []string {
	groups, _ := e.spellings(city, date)
	if groups == nil {
		groups = map[Lang][]string{}
	}

	langs := slices.Clone(e.opts.LangOrder)
	for _, l := range sortedLangs(brand) {
		if !containsLang(langs, l) {
			langs = append(langs, l)
		}
	}

	var out candidateSet
	for _, lang := range langs {
		names := groups[lang]
		if len(names) == 0 {
			names = []string{city}
		}
		for _, b := range brand[lang] {
			for _, n := range names {
				out.add(b + " " + n)
			}
		}
	}
	return out.items
}

// spellings groups the known names of city by language, each group rotated for date.
func (e *Expander) spellings(city string, date time.Time) (map[Lang][]string, bool) {
	sp, ok := e.table.Lookup(city)
	if !ok {
		return nil, false
	}

	groups := make(map[Lang][]string, len(sp)+1)
	seen := make(map[string]bool)
	push := func(lang Lang, name string) {
		name = strings.TrimSpace(name)
		key := models.NormalizeName(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		groups[lang] = append(groups[lang], name)
	}

	push(DetectLang(city), city)
	for _, lang := range sortedLangs(sp) {
		for _, n := range sp[lang] {
			push(lang, n)
		}
	}

	day := date.UTC().Format(models.DateLayout)
	for lang, names := range groups {
		groups[lang] = rotate(names, e.offset(city, day, lang, len(names)))
	}
	return groups, true
}

func (e *Expander) langs(groups map[Lang][]string) []Lang {
	out := make([]Lang, 0, len(groups))
	for _, l := range e.opts.LangOrder {
		if len(groups[l]) > 0 {
			out = append(out, l)
		}
	}
	for _, l := range sortedLangs(groups) {
		if !containsLang(out, l) {
			out = append(out, l)
		}
	}
	return out
}

func (e *Expander) offset(city, day string, lang Lang, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(models.NormalizeName(city)))
	h.Write([]byte{0})
	h.Write([]byte(day))
	h.Write([]byte{0})
	h.Write([]byte(e.opts.Seed))
	h.Write([]byte{0})
	h.Write([]byte(lang))
	return int(h.Sum64() % uint64(n))
}

func rotate(names []string, k int) []string {
	if k == 0 || len(names) == 0 {
		return names
	}
	out := make([]string, 0, len(names))
	out = append(out, names[k:]...)
	return append(out, names[:k]...)
}

func sortedLangs[V any](m map[Lang]V) []Lang {
	out := make([]Lang, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsLang(langs []Lang, l Lang) bool {
	return slices.Contains(langs, l)
}

type candidateSet struct {
	items []string
	seen  map[string]bool
}

func (c *candidateSet) add(names ...string) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	for _, n := range names {
		key := models.NormalizeName(n)
		if key == "" || c.seen[key] {
			continue
		}
		c.seen[key] = true
		c.items = append(c.items, n)
	}
}
