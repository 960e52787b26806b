package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProviderResult is one provider's ranked list for a city.
type ProviderResult struct {
	Provider string
	Listings []Listing
}

// ProviderResults keeps provider lists in configured order. It serializes as a JSON
// object whose keys follow that order.
type ProviderResults []ProviderResult

// Get returns the listings reported for a provider.
func (p ProviderResults) Get(provider string) ([]Listing, bool) {
	for _, pr := range p {
		if pr.Provider == provider {
			return pr.Listings, true
		}
	}
	return nil, false
}

// Names lists providers in order.
func (p ProviderResults) Names() []string {
	names := make([]string, 0, len(p))
	for _, pr := range p {
		names = append(names, pr.Provider)
	}
	return names
}

func (p ProviderResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pr := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(pr.Provider)
		if err != nil {
			return nil, err
		}
		listings := pr.Listings
		if listings == nil {
			listings = []Listing{}
		}
		val, err := json.Marshal(listings)
		if err != nil {
			return nil, fmt.Errorf("marshal %s listings: %w", pr.Provider, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *ProviderResults) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("providers: expected object, got %v", tok)
	}

	var out ProviderResults
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("providers: expected key, got %v", tok)
		}
		var listings []Listing
		if err := dec.Decode(&listings); err != nil {
			return fmt.Errorf("providers: decode %s: %w", name, err)
		}
		out = append(out, ProviderResult{Provider: name, Listings: listings})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}
