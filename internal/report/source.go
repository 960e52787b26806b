// Package report turns the latest run snapshot into the daily CSV, chart and summary.
package report

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/thewisemo/al-eairy-ota/internal/httputil"
	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/store"
)

// Source loads the snapshot a report is built from.
type Source struct {
	// Location is an http(s) URL or a file path.
	Location string
	Client   *http.Client
	Retries  int
}

// Load fetches and decodes the snapshot. Any non-2xx response fails the report.
func (s Source) Load(ctx context.Context) (*models.RunSnapshot, error) {
	if !isRemote(s.Location) {
		return store.ReadFile(s.Location)
	}
	client := s.Client
	if client == nil {
		client = httputil.NewHTTPClient(nil, 0)
	}
	body, err := httputil.Get(ctx, client, s.Location, s.Retries)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	snap, err := store.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot from %s: %w", s.Location, err)
	}
	return snap, nil
}

func isRemote(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
