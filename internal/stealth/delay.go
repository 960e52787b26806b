package stealth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// DelayProfile names a pacing preset for page visits.
type DelayProfile string

const (
	ProfileCautious   DelayProfile = "cautious"
	ProfileNormal     DelayProfile = "normal"
	ProfileAggressive DelayProfile = "aggressive"
	ProfileOff        DelayProfile = "off"
)

// ParseDelayProfile validates a configured profile name.
func ParseDelayProfile(s string) (DelayProfile, error) {
	switch p := DelayProfile(s); p {
	case ProfileCautious, ProfileNormal, ProfileAggressive, ProfileOff:
		return p, nil
	case "":
		return ProfileNormal, nil
	default:
		return "", fmt.Errorf("unknown delay profile %q", s)
	}
}

// HumanDelay spaces navigations with random jitter. Search result pages and hotel
// detail pages use different ranges since a person lingers longer on a listing.
type HumanDelay struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewHumanDelay returns the delay for profile; unknown names get the normal range.
func NewHumanDelay(profile DelayProfile) *HumanDelay {
	switch profile {
	case ProfileCautious:
		return &HumanDelay{MinDelay: 3 * time.Second, MaxDelay: 7 * time.Second}
	case ProfileAggressive:
		return &HumanDelay{MinDelay: 300 * time.Millisecond, MaxDelay: time.Second}
	case ProfileOff:
		return &HumanDelay{}
	default:
		return &HumanDelay{MinDelay: time.Second, MaxDelay: 3 * time.Second}
	}
}

// Wait sleeps a search-page delay or until ctx is done.
func (h *HumanDelay) Wait(ctx context.Context) error {
	return sleep(ctx, h.RequestDelay())
}

// WaitBrowse sleeps the longer delay used before opening a detail page.
func (h *HumanDelay) WaitBrowse(ctx context.Context) error {
	return sleep(ctx, h.PageBrowseDelay())
}

func (h *HumanDelay) RequestDelay() time.Duration {
	return randomBetween(h.MinDelay, h.MaxDelay)
}

func (h *HumanDelay) PageBrowseDelay() time.Duration {
	return randomBetween(h.MaxDelay, h.MaxDelay*2)
}

func randomBetween(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
