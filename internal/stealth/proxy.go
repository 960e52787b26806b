package stealth

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// ProxyProvider is one egress route. URL is nil for direct connections.
type ProxyProvider interface {
	Name() string
	URL() *url.URL
	Transport() http.RoundTripper
}

// ProxyRotator cycles through providers round-robin.
type ProxyRotator struct {
	providers []ProxyProvider
	mu        sync.Mutex
	idx       int
}

// NewProxyRotator returns nil when providers is empty.
func NewProxyRotator(providers []ProxyProvider) *ProxyRotator {
	if len(providers) == 0 {
		return nil
	}
	return &ProxyRotator{providers: providers}
}

func (p *ProxyRotator) Next() ProxyProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	provider := p.providers[p.idx%len(p.providers)]
	p.idx++
	return provider
}

// ProxyConfig selects and parameterizes a provider.
type ProxyConfig struct {
	Mode     string // direct, decodo or custom
	URL      string // custom
	Username string // decodo
	Password string // decodo
	Country  string // decodo, ISO code such as "sa"
	Session  string // decodo sticky session id; empty rotates per connection
}

// NewProxyProvider builds the provider named by cfg.Mode.
func NewProxyProvider(cfg ProxyConfig) (ProxyProvider, error) {
	switch cfg.Mode {
	case "", "direct":
		return &DirectProvider{}, nil
	case "decodo":
		if cfg.Username == "" || cfg.Password == "" {
			return nil, fmt.Errorf("decodo proxy needs username and password")
		}
		country := cfg.Country
		if country == "" {
			country = "sa"
		}
		return &DecodoProvider{Username: cfg.Username, Password: cfg.Password, Country: country, SessionID: cfg.Session}, nil
	case "custom":
		u, err := url.Parse(cfg.URL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", cfg.URL)
		}
		return &HTTPProxyProvider{Label: "custom", proxyURL: u}, nil
	default:
		return nil, fmt.Errorf("unknown proxy mode %q", cfg.Mode)
	}
}

// DirectProvider routes traffic without a proxy.
type DirectProvider struct{}

func (d *DirectProvider) Name() string                 { return "direct" }
func (d *DirectProvider) URL() *url.URL                { return nil }
func (d *DirectProvider) Transport() http.RoundTripper { return http.DefaultTransport }

// DecodoProvider routes through Decodo residential gateways. A SessionID pins one exit
// IP for the session lifetime, which the browser needs to keep cookies consistent.
type DecodoProvider struct {
	Username  string
	Password  string
	Country   string
	SessionID string

	transport http.RoundTripper
	once      sync.Once
}

func (d *DecodoProvider) Name() string {
	if d.SessionID != "" {
		return "decodo-sticky"
	}
	return "decodo-rotating"
}

func (d *DecodoProvider) URL() *url.URL {
	user := fmt.Sprintf("user-%s-country-%s", d.Username, d.Country)
	if d.SessionID != "" {
		user += fmt.Sprintf("-session-%s-sessionduration-%d", d.SessionID, 30)
	}
	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(user, d.Password),
		Host:   "gate.decodo.com:7000",
	}
}

func (d *DecodoProvider) Transport() http.RoundTripper {
	d.once.Do(func() {
		d.transport = &http.Transport{
			Proxy:             http.ProxyURL(d.URL()),
			DisableKeepAlives: d.SessionID == "",
		}
	})
	return d.transport
}

// HTTPProxyProvider wraps a fixed HTTP or SOCKS5 proxy URL.
type HTTPProxyProvider struct {
	Label    string
	proxyURL *url.URL

	transport http.RoundTripper
	once      sync.Once
}

func (h *HTTPProxyProvider) Name() string  { return h.Label }
func (h *HTTPProxyProvider) URL() *url.URL { return h.proxyURL }

func (h *HTTPProxyProvider) Transport() http.RoundTripper {
	h.once.Do(func() {
		h.transport = &http.Transport{Proxy: http.ProxyURL(h.proxyURL)}
	})
	return h.transport
}
