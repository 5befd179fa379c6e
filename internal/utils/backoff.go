package utils

import (
	"context"
	"math/rand"
	"time"
)

// Backoff retries with exponential delay plus up to Jitter of random noise.
type Backoff struct {
	base       time.Duration
	maxRetries int
	Jitter     time.Duration
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	return Backoff{base: base, maxRetries: maxRetries, Jitter: base + base/2}
}

// Do calls fn until it succeeds, retries are exhausted or ctx is done.
// It returns the last error from fn.
func (b Backoff) Do(ctx context.Context, fn func(i int) error) error {
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		err = fn(i)
		if err == nil {
			return nil
		}
		if i == b.maxRetries {
			break
		}
		t := time.Duration(1<<i) * b.base
		if b.Jitter > 0 {
			t += time.Duration(rand.Int63n(int64(b.Jitter)))
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(t):
		}
	}
	return err
}
