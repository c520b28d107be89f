package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is matched by backend errors caused by a network or server
// failure, as opposed to a malformed request.
var ErrUnavailable = errors.New("cache backend unavailable")

// OutageError is a failed backend operation that may succeed when tried
// again. It matches both ErrUnavailable and the driver error.
type OutageError struct {
	Backend string // "redis" or "mongo"
	Op      string
	Err     error
}

func outage(backend, op string, err error) error {
	return &OutageError{Backend: backend, Op: op, Err: err}
}

func (e *OutageError) Error() string {
	return e.Backend + " " + e.Op + ": " + ErrUnavailable.Error() + ": " + e.Err.Error()
}

func (e *OutageError) Unwrap() []error { return []error{ErrUnavailable, e.Err} }

// IsOutage reports whether err is a transient backend failure.
func IsOutage(err error) bool {
	var oe *OutageError
	return errors.As(err, &oe)
}

// backoff retries backend calls that fail with an OutageError. The wait
// starts at delay and doubles after each attempt.
type backoff struct {
	attempts int
	delay    time.Duration
}

// retry is the policy of the Redis and MongoDB caches.
var retry = backoff{attempts: 3, delay: 200 * time.Millisecond}

func (b backoff) do(ctx context.Context, fn func() error) error {
	delay := b.delay
	for i := 1; ; i++ {
		err := fn()
		if err == nil || !IsOutage(err) || i >= b.attempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
