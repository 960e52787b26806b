package ota

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/pricing"
)

// Expedia renders results client-side; the data ships in the __NEXT_DATA__ script.
type expedia struct {
	base string
}

func (e *expedia) searchURL(q string, opts platform.SearchOpts) string {
	v := url.Values{}
	v.Set("destination", searchText(q))
	v.Set("startDate", opts.Stay.CheckIn.Format(models.DateLayout))
	v.Set("endDate", opts.Stay.CheckOut.Format(models.DateLayout))
	v.Set("adults", strconv.Itoa(max(opts.Stay.Adults, 1)))
	v.Set("rooms", strconv.Itoa(max(opts.Stay.Rooms, 1)))
	v.Set("langid", "1033")
	v.Set("currency", opts.Stay.Currency)
	return e.base + "/Hotel-Search?" + v.Encode()
}

var errNoNextData = errors.New("no __NEXT_DATA__ payload")

func nextData(page string) (any, error) {
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}
	raw := scriptText(doc, "__NEXT_DATA__")
	if strings.TrimSpace(raw) == "" {
		return nil, errNoNextData
	}
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}
	return data, nil
}

func (e *expedia) parseSearch(page string, limit int) ([]models.Listing, error) {
	data, err := nextData(page)
	if err != nil {
		return nil, err
	}
	results := findArray(data, "hotelResults")

	var out []models.Listing
	for _, item := range results {
		h, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := oneLine(firstString(h["name"], h["hotelName"]))
		if name == "" {
			continue
		}
		price := jsonPrice(path(h, "price", "lead", "amount"))
		if !price.Known {
			price = jsonPrice(path(h, "price", "displayMessages", "0", "value", "amount"))
		}
		hotelPath, _ := h["hotelPath"].(string)
		out = append(out, models.Listing{
			Hotel:       name,
			URL:         absURL(e.base, hotelPath),
			LowestPrice: price,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (e *expedia) parseUnits(page string, maxRows int) ([]models.Unit, error) {
	data, err := nextData(page)
	if err != nil {
		return nil, err
	}
	rooms := findArray(data, "rooms")
	if maxRows > 0 && len(rooms) > maxRows {
		rooms = rooms[:maxRows]
	}

	rows := make([]pricing.UnitRow, 0, len(rooms))
	for _, r := range rooms {
		room, ok := r.(map[string]any)
		if !ok {
			continue
		}
		plans, _ := room["ratePlans"].([]any)
		var prices []models.Price
		for _, p := range plans {
			if pr := jsonPrice(path(p, "price", "lead", "amount")); pr.Known {
				prices = append(prices, pr)
			}
		}
		text, _ := json.Marshal(room)
		name, _ := room["name"].(string)
		rows = append(rows, pricing.RowWithPrices(name, prices, string(text)))
	}
	return pricing.BuildUnits(rows, maxRows), nil
}

// findArray returns the first array stored under key anywhere in v. Object keys are
// visited in sorted order so the result does not depend on map iteration.
func findArray(v any, key string) []any {
	switch t := v.(type) {
	case map[string]any:
		if found, ok := t[key].([]any); ok {
			return found
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if found := findArray(t[k], key); found != nil {
				return found
			}
		}
	case []any:
		for _, item := range t {
			if found := findArray(item, key); found != nil {
				return found
			}
		}
	}
	return nil
}

// path follows object keys and array indexes.
func path(v any, steps ...string) any {
	for _, s := range steps {
		switch t := v.(type) {
		case map[string]any:
			v = t[s]
		case []any:
			i, err := strconv.Atoi(s)
			if err != nil || i < 0 || i >= len(t) {
				return nil
			}
			v = t[i]
		default:
			return nil
		}
	}
	return v
}

func jsonPrice(v any) models.Price {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return models.Price{}
		}
		return pricing.ParsePrice(strconv.FormatFloat(t, 'f', -1, 64))
	case string:
		return pricing.ParsePrice(t)
	default:
		return models.Price{}
	}
}

func firstString(vs ...any) string {
	for _, v := range vs {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
