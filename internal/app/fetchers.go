package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/thewisemo/al-eairy-ota/internal/browser"
	"github.com/thewisemo/al-eairy-ota/internal/httputil"
	"github.com/thewisemo/al-eairy-ota/internal/ota"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/stealth"
)

// fetchStack is the set of page fetchers one run shares, in fallback order.
type fetchStack struct {
	fetchers []platform.Fetcher
	session  *browser.Session
}

func (f *fetchStack) Close() error {
	if f.session == nil {
		return nil
	}
	return f.session.Close()
}

// newFetchStack builds the configured strategies. The browser is only launched when
// "headless" is listed; "static" goes through the stealth HTTP transport.
func (a *App) newFetchStack(ctx context.Context) (*fetchStack, error) {
	bc := a.Config.Browser

	profile, err := stealth.ParseDelayProfile(bc.DelayProfile)
	if err != nil {
		return nil, err
	}
	delay := stealth.NewHumanDelay(profile)
	limiter := rate.NewLimiter(rate.Limit(bc.RatePerSecond), max(bc.RateBurst, 1))

	fingerprints := stealth.NewFingerprintPool()
	if bc.UserAgent != "" {
		fingerprints = stealth.NewFixedPool(bc.UserAgent)
	}

	var session string
	if bc.Proxy.Sticky {
		session = strconv.FormatInt(time.Now().Unix(), 36)
	}
	proxy, err := stealth.NewProxyProvider(stealth.ProxyConfig{
		Mode:     bc.Proxy.Mode,
		URL:      bc.Proxy.URL,
		Username: bc.Proxy.Username,
		Password: bc.Proxy.Password,
		Country:  bc.Proxy.Country,
		Session:  session,
	})
	if err != nil {
		return nil, err
	}
	robots := stealth.NewRobotsChecker(&http.Client{Timeout: 15 * time.Second, Transport: proxy.Transport()}, bc.RespectRobots)

	stack := &fetchStack{}
	for _, strategy := range bc.Strategies {
		switch strategy {
		case "static":
			transport := &stealth.StealthTransport{
				Robots:      robots,
				Fingerprint: fingerprints,
				Proxy:       stealth.NewProxyRotator([]stealth.ProxyProvider{proxy}),
				Delay:       delay,
				RateLimiter: limiter,
			}
			client := httputil.NewHTTPClient(transport, bc.NavTimeout)
			stack.fetchers = append(stack.fetchers, httputil.NewPageFetcher(client, 1))
		case "headless":
			s, err := browser.Launch(ctx, browser.Options{
				Bin:         bc.Bin,
				ControlURL:  bc.ControlURL,
				Headless:    bc.Headless,
				NavTimeout:  bc.NavTimeout,
				Scroll:      bc.Scroll,
				Fingerprint: fingerprints.Next(),
				Proxy:       proxy,
				Robots:      robots,
				Delay:       delay,
				Limiter:     limiter,
			}, a.Logger)
			if err != nil {
				_ = stack.Close()
				return nil, err
			}
			stack.session = s
			stack.fetchers = append(stack.fetchers, s)
		default:
			_ = stack.Close()
			return nil, fmt.Errorf("unknown fetch strategy %q", strategy)
		}
	}
	a.Logger.Debug().Strs("strategies", bc.Strategies).Str("proxy", proxy.Name()).Msg("fetchers ready")
	return stack, nil
}

// registerAdapters builds one adapter per configured provider on the shared fetchers
// and returns them in configured order.
func (a *App) registerAdapters(providers []string, fetchers []platform.Fetcher) ([]platform.Adapter, error) {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		ad, err := ota.New(p, a.Logger, fetchers...)
		if err != nil {
			return nil, err
		}
		platform.Register(ad.Name(), ad)
		names = append(names, ad.Name())
	}
	return platform.Select(names)
}
