package httputil

import (
	"context"
	"net/http"
)

// PageFetcher loads pages without running JavaScript. Provider pages that render
// results server-side parse from its output; the rest fall through to the browser.
type PageFetcher struct {
	client  *http.Client
	retries int
}

func NewPageFetcher(client *http.Client, retries int) *PageFetcher {
	return &PageFetcher{client: client, retries: retries}
}

func (f *PageFetcher) Name() string { return "static" }

func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	body, err := Get(ctx, f.client, pageURL, f.retries)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
