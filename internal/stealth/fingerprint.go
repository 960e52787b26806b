package stealth

import (
	"net/http"
	"sync"
)

// Fingerprint is a browser identity: a user agent plus headers that agree with it.
type Fingerprint struct {
	UserAgent string
	Platform  string
	Headers   http.Header
}

// FingerprintPool hands out fingerprints round-robin.
type FingerprintPool struct {
	fingerprints []Fingerprint
	mu           sync.Mutex
	idx          int
}

// NewFingerprintPool returns a pool of current desktop Chrome, Edge and Firefox identities.
func NewFingerprintPool() *FingerprintPool {
	return &FingerprintPool{fingerprints: defaultFingerprints()}
}

// NewFixedPool always returns a fingerprint with ua; used when the user pins a user agent.
func NewFixedPool(ua string) *FingerprintPool {
	return &FingerprintPool{fingerprints: []Fingerprint{{
		UserAgent: ua,
		Platform:  "Windows",
		Headers:   chromeHeaders("133", "Windows"),
	}}}
}

func (fp *FingerprintPool) Next() Fingerprint {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	f := fp.fingerprints[fp.idx%len(fp.fingerprints)]
	fp.idx++
	return f
}

func defaultFingerprints() []Fingerprint {
	chrome := func(os, platform string) Fingerprint {
		return Fingerprint{
			UserAgent: "Mozilla/5.0 (" + os + ") AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
			Platform:  platform,
			Headers:   chromeHeaders("133", platform),
		}
	}
	return []Fingerprint{
		chrome("Windows NT 10.0; Win64; x64", "Windows"),
		chrome("Macintosh; Intel Mac OS X 10_15_7", "macOS"),
		chrome("X11; Linux x86_64", "Linux"),
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
			Platform:  "Windows",
			Headers:   firefoxHeaders(),
		},
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36 Edg/133.0.0.0",
			Platform:  "Windows",
			Headers:   chromeHeaders("133", "Windows"),
		},
	}
}

// Hotel sites localize by Accept-Language; English first keeps result pages parseable.
const acceptLanguage = "en-US,en;q=0.9,ar;q=0.8"

func chromeHeaders(version, platform string) http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Sec-Ch-Ua", `"Chromium";v="`+version+`", "Not(A:Brand";v="99", "Google Chrome";v="`+version+`"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"`+platform+`"`)
	setNavigationHeaders(h)
	return h
}

func firefoxHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Accept-Encoding", "gzip, deflate, br")
	setNavigationHeaders(h)
	return h
}

func setNavigationHeaders(h http.Header) {
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
}
