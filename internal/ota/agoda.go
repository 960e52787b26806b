package ota

import (
	"net/url"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/pricing"
)

type agoda struct {
	base string
}

func (a *agoda) searchURL(q string, opts platform.SearchOpts) string {
	v := url.Values{}
	v.Set("checkIn", opts.Stay.CheckIn.Format(models.DateLayout))
	v.Set("los", strconv.Itoa(max(opts.Stay.Nights(), 1)))
	v.Set("rooms", strconv.Itoa(max(opts.Stay.Rooms, 1)))
	v.Set("adults", strconv.Itoa(max(opts.Stay.Adults, 1)))
	v.Set("children", "0")
	v.Set("pslc", opts.Stay.Currency)
	v.Set("locale", "en-us")
	v.Set("text", searchText(q))
	return a.base + "/search?" + v.Encode()
}

// parseSearch reads hotel-name elements. The card is the nearest link around the
// name; when the link only wraps the name, the enclosing result item carries the price.
func (a *agoda) parseSearch(page string, limit int) ([]models.Listing, error) {
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	var out []models.Listing
	for _, el := range findAll(doc, anyOf(testID("hotel-name"), attrIs("itemprop", "name"))) {
		name := oneLine(innerText(el))
		link := closest(el, tagIs(atom.A))
		href := attr(link, "href")
		if name == "" || href == "" {
			continue
		}

		price := pricing.Lowest(pricing.ExtractPrices(innerText(link)))
		if !price.Known {
			if item := resultItem(el); item != nil {
				price = pricing.Lowest(pricing.ExtractPrices(innerText(item)))
			}
		}
		out = append(out, models.Listing{
			Hotel:       name,
			URL:         absURL(a.base, href),
			LowestPrice: price,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func resultItem(n *html.Node) *html.Node {
	return closest(n, anyOf(attrIs("data-selenium", "hotel-item"), tagIs(atom.Li)))
}

func (a *agoda) parseUnits(page string, maxRows int) ([]models.Unit, error) {
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	rooms := findAll(doc, anyOf(attrIs("data-component", "room-name"), hasClass("RoomName")))
	if maxRows > 0 && len(rooms) > maxRows {
		rooms = rooms[:maxRows]
	}
	rows := make([]pricing.UnitRow, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, pricing.RowFromText(oneLine(innerText(r)), innerText(r.Parent)))
	}
	return pricing.BuildUnits(rows, maxRows), nil
}
