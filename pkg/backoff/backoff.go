package backoff

import (
	"context"
	"time"
)

// maxSeconds bounds the computed delay so the integer power cannot overflow
// time.Duration. Only pathological base/attempt settings reach it.
const maxSeconds = int64(1) << 31

// Delay returns the retry delay for the given attempt: base^attempt seconds.
// Attempt 1 is the first retry, so base 2 yields 2s, 4s, 8s. A base of zero
// or less disables the delay.
func Delay(base, attempt int) time.Duration {
	if base <= 0 || attempt <= 0 {
		return 0
	}
	sec := int64(1)
	for i := 0; i < attempt; i++ {
		if sec > maxSeconds/int64(base) {
			return time.Duration(maxSeconds) * time.Second
		}
		sec *= int64(base)
	}
	return time.Duration(sec) * time.Second
}

// Wait blocks for d or until ctx is cancelled, whichever comes first.
// Returns ctx.Err() when cancelled early, nil otherwise.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
