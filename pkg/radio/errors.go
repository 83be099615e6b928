package radio

import "errors"

var (
	// ErrRateLimited is returned when the limiter cannot admit a request
	// within the configured wait budget.
	ErrRateLimited = errors.New("radio: rate limited")

	// ErrUpstreamUnavailable is returned after the retry budget is spent
	// without a usable response from an upstream source.
	ErrUpstreamUnavailable = errors.New("radio: upstream unavailable")
)
