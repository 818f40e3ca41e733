package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports a backend that could not be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsTransient reports whether err was marked with [Transient].
func IsTransient(err error) bool {
	return errors.As(err, new(transientError))
}

// Backoff retries transient backend failures.
type Backoff struct {
	Attempts int           // total calls, at least one
	Delay    time.Duration // wait before the second call, doubled after each failure
}

// DefaultBackoff is what [RedisCache] uses. Layout lookups are on the
// interactive path, so the waits stay short.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// Do calls fn until it succeeds or returns an error not marked transient.
// Once the attempts are used up the last error is returned; a done context
// stops the waiting with ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for attempt := range max(b.Attempts, 1) {
		if attempt > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			delay *= 2
		}
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}
