// Package browser owns the single headless Chromium page every provider navigates.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/thewisemo/al-eairy-ota/internal/stealth"
)

// Options configure a Session.
type Options struct {
	Bin         string        // Chromium binary; empty lets rod download or find one
	ControlURL  string        // connect to a running browser instead of launching
	Headless    bool
	NavTimeout  time.Duration // bound on a single Fetch
	Scroll      bool          // scroll to the bottom so lazy cards render
	Fingerprint stealth.Fingerprint
	Proxy       stealth.ProxyProvider
	Robots      *stealth.RobotsChecker
	Delay       *stealth.HumanDelay
	Limiter     *rate.Limiter
}

// Session is one browser with one page. Fetch calls are serialized: the page holds
// the current navigation and concurrent use would mix up extractions.
type Session struct {
	mu       sync.Mutex
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	visits   int
	log      zerolog.Logger
}

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("browser session closed")

// Launch starts (or connects to) Chromium and opens the shared page.
func Launch(ctx context.Context, opts Options, logger zerolog.Logger) (*Session, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 35 * time.Second
	}
	s := &Session{opts: opts, log: logger.With().Str("component", "browser").Logger()}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless).Logger(io.Discard)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		if opts.Proxy != nil && opts.Proxy.URL() != nil {
			l = l.Proxy(opts.Proxy.URL().Host)
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		s.launcher = l
		controlURL = u
	}

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	if opts.Proxy != nil && opts.Proxy.URL() != nil && opts.Proxy.URL().User != nil {
		s.handleProxyAuth(opts.Proxy.URL().User)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1920, Height: 1080}); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if ua := opts.Fingerprint.UserAgent; ua != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: opts.Fingerprint.Headers.Get("Accept-Language"),
			Platform:       opts.Fingerprint.Platform,
		})
		if err != nil {
			s.cleanup()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	s.page = page

	s.log.Info().Bool("headless", opts.Headless).Str("proxy", proxyName(opts.Proxy)).Msg("browser ready")
	return s, nil
}

func (s *Session) Name() string { return "headless" }

// Fetch navigates the shared page to pageURL and returns the rendered HTML. The page
// is left on pageURL afterwards.
func (s *Session) Fetch(ctx context.Context, pageURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return "", ErrClosed
	}

	ua := s.opts.Fingerprint.UserAgent
	allowed, err := s.opts.Robots.IsAllowed(ctx, ua, pageURL)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", fmt.Errorf("%s: %w", pageURL, stealth.ErrDisallowed)
	}
	if err := s.pace(ctx, pageURL); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.NavTimeout)
	defer cancel()
	page := s.page.Context(ctx)

	start := time.Now()
	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	if s.opts.Scroll {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			s.log.Debug().Err(err).Msg("scroll failed")
		}
	}
	// Result lists hydrate after load; settle time is best effort.
	_ = page.WaitDOMStable(1500*time.Millisecond, 0.05)

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	s.visits++
	s.log.Debug().Str("url", pageURL).Dur("took", time.Since(start)).Int("bytes", len(html)).Msg("page fetched")
	return html, nil
}

// pace applies the rate limit, robots crawl delay and human jitter before a visit.
func (s *Session) pace(ctx context.Context, pageURL string) error {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if s.visits == 0 {
		return nil
	}
	if d := s.opts.Robots.CrawlDelay(ctx, s.opts.Fingerprint.UserAgent, pageURL); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.opts.Delay != nil {
		return s.opts.Delay.Wait(ctx)
	}
	return nil
}

// handleProxyAuth answers the proxy's first auth challenge; Chromium reuses the
// credentials for the rest of the session.
func (s *Session) handleProxyAuth(user *url.Userinfo) {
	pass, _ := user.Password()
	wait := s.browser.HandleAuth(user.Username(), pass)
	go func() {
		if err := wait(); err != nil {
			s.log.Warn().Err(err).Msg("proxy auth")
		}
	}()
}

// Visits returns how many pages were fetched.
func (s *Session) Visits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = nil
	return s.cleanup()
}

func (s *Session) cleanup() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.launcher = nil
	}
	return err
}

func proxyName(p stealth.ProxyProvider) string {
	if p == nil {
		return "direct"
	}
	return p.Name()
}
