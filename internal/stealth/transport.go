package stealth

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// ErrDisallowed is returned when robots.txt forbids a URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StealthTransport dresses plain HTTP requests like browser navigations:
// fingerprint, robots check, rate limit, jitter, then the proxy route.
type StealthTransport struct {
	Base        http.RoundTripper
	Robots      *RobotsChecker
	Fingerprint *FingerprintPool
	Proxy       *ProxyRotator
	Delay       *HumanDelay
	RateLimiter *rate.Limiter
}

func (t *StealthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)

	ua := req.Header.Get("User-Agent")
	if t.Fingerprint != nil {
		fp := t.Fingerprint.Next()
		ua = fp.UserAgent
		req.Header.Set("User-Agent", ua)
		for key, vals := range fp.Headers {
			if req.Header.Get(key) == "" {
				req.Header[key] = append([]string(nil), vals...)
			}
		}
	}

	if allowed, err := t.Robots.IsAllowed(ctx, ua, req.URL.String()); err == nil && !allowed {
		return nil, fmt.Errorf("%s: %w", req.URL.Path, ErrDisallowed)
	}
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if t.Delay != nil {
		if err := t.Delay.Wait(ctx); err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
	}

	transport := t.Base
	if t.Proxy != nil {
		transport = t.Proxy.Next().Transport()
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(req)
}
