package client

import (
	"math/rand"
	"time"
)

// maxBackoffShift bounds the exponent so the doubling never overflows a
// time.Duration before the cap applies.
const maxBackoffShift = 32

// backoffDelay returns the reconnect delay for the given attempt count:
// min(cap, base * 2^attempt) plus random jitter in [0, delay/4), so a fleet
// of plugins does not hammer a recovering core in lockstep.
func backoffDelay(base, cap time.Duration, attempt int, rng *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}

	delay := cap
	if attempt < maxBackoffShift {
		if d := base << uint(attempt); d < cap {
			delay = d
		}
	}

	if jitterRange := int64(delay / 4); jitterRange > 0 {
		delay += time.Duration(rng.Int63n(jitterRange))
	}
	return delay
}
