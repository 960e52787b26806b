package models

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is an amount in the settlement currency. The zero value is an unknown price,
// which serializes as JSON null and never as zero.
type Price struct {
	Amount decimal.Decimal
	Known  bool
}

// KnownPrice wraps a finite amount.
func KnownPrice(d decimal.Decimal) Price {
	return Price{Amount: d, Known: true}
}

// PriceFromInt is a convenience for whole amounts.
func PriceFromInt(n int64) Price {
	return KnownPrice(decimal.NewFromInt(n))
}

// ComparePrice orders known prices ascending and every unknown price after all known ones.
func ComparePrice(a, b Price) int {
	switch {
	case a.Known && b.Known:
		return a.Amount.Cmp(b.Amount)
	case a.Known:
		return -1
	case b.Known:
		return 1
	default:
		return 0
	}
}

// MinPrice returns the lower of two prices; an unknown price never wins over a known one.
func MinPrice(a, b Price) Price {
	if ComparePrice(b, a) < 0 {
		return b
	}
	return a
}

// Float64 returns the amount as a float and whether the price is known.
func (p Price) Float64() (float64, bool) {
	if !p.Known {
		return 0, false
	}
	return p.Amount.InexactFloat64(), true
}

func (p Price) String() string {
	if !p.Known {
		return "-"
	}
	return p.Amount.String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return []byte("null"), nil
	}
	return []byte(p.Amount.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		*p = Price{}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("decode price %q: %w", data, err)
	}
	*p = KnownPrice(d)
	return nil
}
