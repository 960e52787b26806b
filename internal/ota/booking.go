package ota

import (
	"net/url"
	"strconv"

	"golang.org/x/net/html/atom"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/pricing"
)

type booking struct {
	base string
}

func (b *booking) searchURL(q string, opts platform.SearchOpts) string {
	v := url.Values{}
	v.Set("ss", searchText(q))
	v.Set("checkin", opts.Stay.CheckIn.Format(models.DateLayout))
	v.Set("checkout", opts.Stay.CheckOut.Format(models.DateLayout))
	v.Set("group_adults", strconv.Itoa(max(opts.Stay.Adults, 1)))
	v.Set("no_rooms", strconv.Itoa(max(opts.Stay.Rooms, 1)))
	v.Set("group_children", "0")
	v.Set("selected_currency", opts.Stay.Currency)
	v.Set("lang", "en-us")
	return b.base + "/searchresults.html?" + v.Encode()
}

func (b *booking) parseSearch(page string, limit int) ([]models.Listing, error) {
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	var out []models.Listing
	for _, card := range findAll(doc, testID("property-card")) {
		name := oneLine(innerText(findFirst(card, testID("title"))))
		href := attr(findFirst(card, testID("title-link")), "href")
		if name == "" || href == "" {
			continue
		}
		priceEl := findFirst(card, anyOf(testID("price-and-discounted-price"), attrIs("aria-label", "Price")))
		out = append(out, models.Listing{
			Hotel:       name,
			URL:         absURL(b.base, href),
			LowestPrice: textPrice(innerText(priceEl)),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (b *booking) parseUnits(page string, maxRows int) ([]models.Unit, error) {
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	rooms := findAll(doc, anyOf(testID("room-name"), hasClass("hprt-roomtype-icon-link")))
	if maxRows > 0 && len(rooms) > maxRows {
		rooms = rooms[:maxRows]
	}
	rows := make([]pricing.UnitRow, 0, len(rooms))
	for _, r := range rooms {
		title := innerText(r)
		if title == "" {
			continue
		}
		block := closest(r, tagIs(atom.Tr))
		if block == nil {
			block = r.Parent
		}
		rows = append(rows, pricing.RowFromText(oneLine(title), innerText(block)))
	}
	return pricing.BuildUnits(rows, maxRows), nil
}
