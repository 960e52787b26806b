// Package retry walks an ordered list of query candidates until one yields results.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Options parameterise the candidate walk.
type Options struct {
	// Attempts per candidate; an attempt is repeated only when it fails with an error.
	Attempts int
	// Timeout bounds every single attempt.
	Timeout time.Duration
	// Backoff is slept between failed attempts of the same candidate.
	Backoff time.Duration
}

// Status classifies an Outcome.
type Status int

const (
	// Empty means every candidate answered with no results.
	Empty Status = iota
	// Found means a candidate produced results.
	Found
	// Failed means no candidate produced results and at least one attempt errored.
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Failed:
		return "failed"
	default:
		return "empty"
	}
}

// Outcome is the explicit result of a candidate walk.
type Outcome[T any] struct {
	Items []T
	// Query is the candidate that produced Items.
	Query string
	// Tried lists the candidates attempted, in order.
	Tried []string
	// Err is the last attempt error seen, if any.
	Err error
}

// Status reports whether the walk found items, came back empty or failed.
func (o Outcome[T]) Status() Status {
	switch {
	case len(o.Items) > 0:
		return Found
	case o.Err != nil:
		return Failed
	default:
		return Empty
	}
}

// Note renders the diagnostic recorded for a walk that found nothing.
func (o Outcome[T]) Note() string {
	switch o.Status() {
	case Failed:
		return "error:" + o.Err.Error()
	case Empty:
		return "no-results:" + strings.Join(o.Tried, "|")
	default:
		return ""
	}
}

// FirstNonEmpty tries candidates in order and stops at the first one returning a
// non-empty result. Failed attempts are retried up to opts.Attempts times; an empty
// answer moves on to the next candidate straight away. Cancellation of ctx ends the walk.
func FirstNonEmpty[T any](ctx context.Context, candidates []string, opts Options, fn func(ctx context.Context, candidate string) ([]T, error)) Outcome[T] {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var out Outcome[T]
	for _, candidate := range candidates {
		out.Tried = append(out.Tried, candidate)
		for attempt := 0; attempt < attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				out.Err = err
				return out
			}

			items, err := runAttempt(ctx, candidate, opts.Timeout, fn)
			if err != nil {
				out.Err = err
				if attempt+1 < attempts && !sleep(ctx, opts.Backoff) {
					out.Err = ctx.Err()
					return out
				}
				continue
			}
			if len(items) > 0 {
				out.Items = items
				out.Query = candidate
				out.Err = nil
				return out
			}
			break
		}
	}
	return out
}

func runAttempt[T any](ctx context.Context, candidate string, timeout time.Duration, fn func(context.Context, string) ([]T, error)) ([]T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	items, err := fn(ctx, candidate)
	if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ctx.Err()
	}
	return items, err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
