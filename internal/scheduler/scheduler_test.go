package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNextTickAligned(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*3600)
	s := New(Options{Interval: 24 * time.Hour, Offset: 2 * time.Hour, AlignToStart: true, Location: riyadh}, zerolog.Nop())

	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 14, 1, 0, 0, 0, riyadh), time.Date(2025, 3, 14, 2, 0, 0, 0, riyadh)},
		{time.Date(2025, 3, 14, 2, 0, 0, 0, riyadh), time.Date(2025, 3, 15, 2, 0, 0, 0, riyadh)},
		{time.Date(2025, 3, 14, 23, 30, 0, 0, riyadh), time.Date(2025, 3, 15, 2, 0, 0, 0, riyadh)},
		// 22:30 UTC is already 01:30 the next day in Riyadh.
		{time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC), time.Date(2025, 3, 15, 2, 0, 0, 0, riyadh)},
	}
	for _, tt := range tests {
		if got := s.nextTick(tt.now); !got.Equal(tt.want) {
			t.Errorf("nextTick(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestNextTickUnaligned(t *testing.T) {
	s := New(Options{Interval: time.Hour}, zerolog.Nop())
	now := time.Date(2025, 3, 14, 10, 17, 0, 0, time.UTC)
	if got := s.nextTick(now); !got.Equal(now.Add(time.Hour)) {
		t.Errorf("nextTick = %v", got)
	}
}

func TestNewPanicsOnZeroInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(Options{}, zerolog.Nop())
}

func TestRunKeepsGoingAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := New(Options{Interval: 10 * time.Millisecond, RunOnStart: true}, zerolog.Nop())
	err := s.Run(ctx, func(context.Context, time.Time) error {
		if calls.Add(1) >= 3 {
			cancel()
		}
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if calls.Load() < 3 {
		t.Fatalf("calls = %d, want >= 3", calls.Load())
	}
}
