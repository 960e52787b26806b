package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFirstNonEmptyStopsAtFirstHit(t *testing.T) {
	var calls []string
	out := FirstNonEmpty(context.Background(), []string{"a", "b", "c"}, Options{Attempts: 2}, func(ctx context.Context, q string) ([]int, error) {
		calls = append(calls, q)
		if q == "b" {
			return []int{1, 2}, nil
		}
		return nil, nil
	})

	if out.Status() != Found || out.Query != "b" || len(out.Items) != 2 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(calls) != 2 {
		t.Fatalf("empty answers must not be retried; calls = %v", calls)
	}
	if out.Note() != "" {
		t.Fatalf("found outcome should have no note, got %q", out.Note())
	}
}

func TestFirstNonEmptyRetriesErrors(t *testing.T) {
	attempts := 0
	out := FirstNonEmpty(context.Background(), []string{"only"}, Options{Attempts: 3}, func(ctx context.Context, q string) ([]string, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("navigation failed")
		}
		return []string{"hit"}, nil
	})
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if out.Status() != Found || out.Err != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestFirstNonEmptyNotes(t *testing.T) {
	empty := FirstNonEmpty(context.Background(), []string{"Riyadh", "الرياض"}, Options{}, func(ctx context.Context, q string) ([]int, error) {
		return nil, nil
	})
	if empty.Status() != Empty || empty.Note() != "no-results:Riyadh|الرياض" {
		t.Fatalf("unexpected empty note %q", empty.Note())
	}

	failed := FirstNonEmpty(context.Background(), []string{"Riyadh"}, Options{Attempts: 2}, func(ctx context.Context, q string) ([]int, error) {
		return nil, errors.New("timeout waiting for page")
	})
	if failed.Status() != Failed || failed.Note() != "error:timeout waiting for page" {
		t.Fatalf("unexpected failed note %q", failed.Note())
	}
}

func TestFirstNonEmptyPerAttemptTimeout(t *testing.T) {
	out := FirstNonEmpty(context.Background(), []string{"slow"}, Options{Timeout: 20 * time.Millisecond}, func(ctx context.Context, q string) ([]int, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if out.Status() != Failed || !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %+v", out)
	}
}

func TestFirstNonEmptyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	out := FirstNonEmpty(ctx, []string{"a", "b"}, Options{}, func(ctx context.Context, q string) ([]int, error) {
		calls++
		return []int{1}, nil
	})
	if calls != 0 || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("cancelled walk should not call fn; calls=%d err=%v", calls, out.Err)
	}
}
