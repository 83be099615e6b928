package radio

import "time"

// Config carries upstream endpoints and fetch tuning for the Client.
type Config struct {
	// SolarURL serves the hamqsl solar/band conditions XML feed.
	SolarURL string

	// SpotsURL serves the Parks on the Air activation spot list.
	SpotsURL string

	// CacheTTL bounds how long a decoded upstream response is reused.
	CacheTTL time.Duration

	// RatePerSecond and Burst shape the token bucket in front of all
	// upstream fetches.
	RatePerSecond float64
	Burst         int

	// MaxWait caps how long a fetch may queue on the limiter before
	// failing with ErrRateLimited.
	MaxWait time.Duration

	// Retries is the number of additional attempts after a failed fetch.
	// RetryDelay is the fixed pause between attempts.
	Retries    int
	RetryDelay time.Duration

	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration
}

// DefaultConfig returns upstream settings suitable for production use.
func DefaultConfig() *Config {
	return &Config{
		SolarURL:       "https://www.hamqsl.com/solarxml.php",
		SpotsURL:       "https://api.pota.app/v1/spots",
		CacheTTL:       60 * time.Second,
		RatePerSecond:  1,
		Burst:          5,
		MaxWait:        2 * time.Second,
		Retries:        2,
		RetryDelay:     500 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
	}
}

// Clone returns a copy the caller may mutate safely.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
