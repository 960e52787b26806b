package pricing

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultBrandPatterns identify the tracked brand by its English name, its common
// transliteration and its Arabic spelling.
var DefaultBrandPatterns = []string{
	`al[\s-]*eairy`,
	`al[\s-]*ayeri`,
	`ال\s*عييري`,
}

// BrandMatcher classifies hotel names as the tracked brand or not.
type BrandMatcher struct {
	patterns []*regexp.Regexp
}

// NewBrandMatcher compiles the given patterns case-insensitively.
func NewBrandMatcher(patterns []string) (*BrandMatcher, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("brand matcher needs at least one pattern")
	}
	m := &BrandMatcher{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		rx, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile brand pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, rx)
	}
	return m, nil
}

// Match reports whether name belongs to the tracked brand.
func (m *BrandMatcher) Match(name string) bool {
	for _, rx := range m.patterns {
		if rx.MatchString(name) {
			return true
		}
	}
	return false
}

var defaultMatcher = func() *BrandMatcher {
	m, err := NewBrandMatcher(DefaultBrandPatterns)
	if err != nil {
		panic(err)
	}
	return m
}()

// IsTrackedBrand classifies name with the default brand patterns.
func IsTrackedBrand(name string) bool {
	return defaultMatcher.Match(name)
}
