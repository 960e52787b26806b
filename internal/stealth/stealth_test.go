package stealth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseDelayProfile(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    DelayProfile
		wantErr bool
	}{
		{"", ProfileNormal, false},
		{"cautious", ProfileCautious, false},
		{"off", ProfileOff, false},
		{"reckless", "", true},
	} {
		got, err := ParseDelayProfile(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseDelayProfile(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestHumanDelayBounds(t *testing.T) {
	d := NewHumanDelay(ProfileAggressive)
	for i := 0; i < 50; i++ {
		if got := d.RequestDelay(); got < d.MinDelay || got >= d.MaxDelay {
			t.Fatalf("delay %s outside [%s, %s)", got, d.MinDelay, d.MaxDelay)
		}
	}
	if err := NewHumanDelay(ProfileOff).Wait(context.Background()); err != nil {
		t.Fatalf("off profile wait: %v", err)
	}
}

func TestRobotsChecker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("User-agent: *\nDisallow: /private\nCrawl-delay: 2\n"))
	}))
	defer srv.Close()

	rc := NewRobotsChecker(srv.Client(), true)
	ctx := context.Background()

	if ok, err := rc.IsAllowed(ctx, "otascan", srv.URL+"/searchresults.html?ss=Riyadh"); err != nil || !ok {
		t.Fatalf("search page: allowed=%v err=%v", ok, err)
	}
	if ok, _ := rc.IsAllowed(ctx, "otascan", srv.URL+"/private/account"); ok {
		t.Fatal("private path should be disallowed")
	}
	if got := rc.CrawlDelay(ctx, "otascan", srv.URL+"/"); got != 2*time.Second {
		t.Fatalf("crawl delay = %s", got)
	}
	if hits.Load() != 1 {
		t.Fatalf("robots.txt fetched %d times, want cached", hits.Load())
	}

	if ok, _ := NewRobotsChecker(nil, false).IsAllowed(ctx, "x", "http://127.0.0.1:1/private"); !ok {
		t.Fatal("disabled checker must allow")
	}
}

func TestStealthTransportAppliesFingerprint(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /blocked\n"))
			return
		}
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &StealthTransport{
		Robots:      NewRobotsChecker(srv.Client(), true),
		Fingerprint: NewFixedPool("otascan-test/1.0"),
	}}

	resp, err := client.Get(srv.URL + "/hotel/sa/example.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if gotUA != "otascan-test/1.0" || gotLang != acceptLanguage {
		t.Fatalf("headers not applied: ua=%q lang=%q", gotUA, gotLang)
	}

	_, err = client.Get(srv.URL + "/blocked/page")
	if !errors.Is(err, ErrDisallowed) {
		t.Fatalf("want ErrDisallowed, got %v", err)
	}
}

func TestNewProxyProvider(t *testing.T) {
	p, err := NewProxyProvider(ProxyConfig{Mode: "decodo", Username: "u", Password: "p", Session: "run1"})
	if err != nil {
		t.Fatal(err)
	}
	u := p.URL()
	if u.Host != "gate.decodo.com:7000" || u.User.Username() != "user-u-country-sa-session-run1-sessionduration-30" {
		t.Fatalf("unexpected proxy url %s", u.Redacted())
	}

	if _, err := NewProxyProvider(ProxyConfig{Mode: "custom", URL: "::bad"}); err == nil {
		t.Fatal("bad custom url accepted")
	}
	if d, _ := NewProxyProvider(ProxyConfig{}); d.URL() != nil {
		t.Fatal("direct provider should have no url")
	}
}
