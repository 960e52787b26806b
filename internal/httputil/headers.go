package httputil

import "net/http"

// BrowserHeaders returns headers of a desktop browser navigation. Setting
// Accept-Encoding by hand disables Go's transparent gzip, so ReadBody decodes.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9,ar;q=0.8")
	h.Set("Accept-Encoding", "gzip, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}
