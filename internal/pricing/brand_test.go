package pricing

import "testing"

func TestIsTrackedBrand(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Al Eairy Furnished Apartments Riyadh 3", true},
		{"AL EAIRY Hotel", true},
		{"Al-Eairy Apartments Jeddah", true},
		{"Aleairy Suites", true},
		{"Al Ayeri Apartments", true},
		{"العييري للشقق المفروشة", true},
		{"ال عييري", true},
		{"Holiday Inn Riyadh", false},
		{"Al Eiry Towers", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTrackedBrand(tt.name); got != tt.want {
			t.Errorf("IsTrackedBrand(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewBrandMatcherCustomPatterns(t *testing.T) {
	m, err := NewBrandMatcher([]string{`grand\s*plaza`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Match("GRAND  PLAZA Dammam") {
		t.Fatal("custom pattern should match case-insensitively with extra whitespace")
	}
	if m.Match("Al Eairy Apartments") {
		t.Fatal("custom matcher must not fall back to default patterns")
	}
}

func TestNewBrandMatcherRejectsBadInput(t *testing.T) {
	if _, err := NewBrandMatcher(nil); err == nil {
		t.Fatal("expected error for empty pattern list")
	}
	if _, err := NewBrandMatcher([]string{"("}); err == nil {
		t.Fatal("expected error for invalid regexp")
	}
}
