package query

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FallbackCities is used when no cities file is configured or it cannot be read.
var FallbackCities = []string{
	"Riyadh", "Jeddah", "Dammam", "Al Ahsa", "Al Hofuf", "Khobar",
	"Madinah", "Mecca", "Buraidah", "Hail", "Tabuk", "Abha",
	"Khamis Mushait", "Najran", "Jazan", "Al Baha", "Al Nairyah", "Qatif",
	"Yanbu", "Arar", "Sakaka", "Hafar Al-Batin", "Jubail", "Unaizah",
}

// LoadCities reads one city per line, skipping blanks and lines starting with '#'.
// The boolean reports whether the fallback list was used.
func LoadCities(path string) ([]string, bool, error) {
	if path == "" {
		return fallback(), true, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fallback(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open cities file: %w", err)
	}
	defer f.Close()

	var cities []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\uFEFF"))
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		cities = append(cities, line)
	}
	if err := sc.Err(); err != nil {
		return nil, false, fmt.Errorf("read cities file: %w", err)
	}
	if len(cities) == 0 {
		return fallback(), true, nil
	}
	return cities, false, nil
}

func fallback() []string {
	return append([]string(nil), FallbackCities...)
}
