package query

import (
	"fmt"
	"os"
	"sort"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// Lang names a search index language.
type Lang string

const (
	English Lang = "en"
	Arabic  Lang = "ar"
)

// Spellings lists the names of one city per language.
type Spellings map[Lang][]string

// Table maps cities to their known spellings. Any spelling finds the entry.
type Table struct {
	entries map[string]Spellings
	index   map[string]string
}

// NewTable indexes the given entries. Keys are display names.
func NewTable(entries map[string]Spellings) *Table {
	t := &Table{
		entries: make(map[string]Spellings, len(entries)),
		index:   make(map[string]string),
	}
	for city, sp := range entries {
		t.add(city, sp)
	}
	return t
}

func (t *Table) add(city string, sp Spellings) {
	key := models.NormalizeName(city)
	t.entries[key] = sp
	t.index[key] = key
	for _, names := range sp {
		for _, n := range names {
			t.index[models.NormalizeName(n)] = key
		}
	}
}

// Lookup returns the spellings recorded for city.
func (t *Table) Lookup(city string) (Spellings, bool) {
	if t == nil {
		return nil, false
	}
	key, ok := t.index[models.NormalizeName(city)]
	if !ok {
		return nil, false
	}
	return t.entries[key], true
}

// Merge overlays other onto t; entries in other win.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	keys := make([]string, 0, len(other.entries))
	for k := range other.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.add(k, other.entries[k])
	}
}

// LoadSynonyms reads a YAML file of the form
//
//	Riyadh:
//	  en: [Riyadh, Ar Riyadh]
//	  ar: [الرياض]
func LoadSynonyms(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	var raw map[string]Spellings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", path, err)
	}
	return NewTable(raw), nil
}

// DetectLang classifies a query by script.
func DetectLang(s string) Lang {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return Arabic
		}
	}
	return English
}

// DefaultTable covers the built-in city list.
func DefaultTable() *Table {
	return NewTable(map[string]Spellings{
		"Riyadh":         {English: {"Riyadh", "Ar Riyadh"}, Arabic: {"الرياض"}},
		"Jeddah":         {English: {"Jeddah", "Jiddah", "Jedda"}, Arabic: {"جدة"}},
		"Dammam":         {English: {"Dammam", "Ad Dammam"}, Arabic: {"الدمام"}},
		"Al Ahsa":        {English: {"Al Ahsa", "Al Hasa", "Al-Ahsa"}, Arabic: {"الأحساء"}},
		"Al Hofuf":       {English: {"Al Hofuf", "Hofuf"}, Arabic: {"الهفوف"}},
		"Khobar":         {English: {"Khobar", "Al Khobar"}, Arabic: {"الخبر"}},
		"Madinah":        {English: {"Madinah", "Medina", "Al Madinah"}, Arabic: {"المدينة المنورة"}},
		"Mecca":          {English: {"Mecca", "Makkah"}, Arabic: {"مكة المكرمة", "مكة"}},
		"Buraidah":       {English: {"Buraidah", "Buraydah"}, Arabic: {"بريدة"}},
		"Hail":           {English: {"Hail", "Ha'il"}, Arabic: {"حائل"}},
		"Tabuk":          {English: {"Tabuk"}, Arabic: {"تبوك"}},
		"Abha":           {English: {"Abha"}, Arabic: {"أبها"}},
		"Khamis Mushait": {English: {"Khamis Mushait", "Khamis Mushayt"}, Arabic: {"خميس مشيط"}},
		"Najran":         {English: {"Najran"}, Arabic: {"نجران"}},
		"Jazan":          {English: {"Jazan", "Jizan"}, Arabic: {"جازان"}},
		"Al Baha":        {English: {"Al Baha", "Baha"}, Arabic: {"الباحة"}},
		"Al Nairyah":     {English: {"Al Nairyah", "Nairiyah"}, Arabic: {"النعيرية"}},
		"Qatif":          {English: {"Qatif", "Al Qatif"}, Arabic: {"القطيف"}},
		"Yanbu":          {English: {"Yanbu", "Yanbu Al Bahr"}, Arabic: {"ينبع"}},
		"Arar":           {English: {"Arar"}, Arabic: {"عرعر"}},
		"Sakaka":         {English: {"Sakaka"}, Arabic: {"سكاكا"}},
		"Hafar Al-Batin": {English: {"Hafar Al-Batin", "Hafr Al Batin"}, Arabic: {"حفر الباطن"}},
		"Jubail":         {English: {"Jubail", "Al Jubail"}, Arabic: {"الجبيل"}},
		"Unaizah":        {English: {"Unaizah", "Unayzah"}, Arabic: {"عنيزة"}},
	})
}
