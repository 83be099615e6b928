package radio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// maxBodySize bounds how much of an upstream response body is read.
const maxBodySize = 4 << 20

const (
	endpointSolar = "solar"
	endpointSpots = "spots"
)

// Client fetches and decodes upstream radio data. Every fetch goes through
// the cache, then the limiter, then HTTP with the retry budget. Clients are
// safe for concurrent use.
type Client struct {
	config  *Config
	http    *http.Client
	cache   *Cache
	limiter *Limiter
	logger  *slog.Logger
	metrics *Metrics
}

// NewClient builds a Client from cfg. A nil httpClient gets a default one
// bounded by cfg.RequestTimeout; a nil logger discards; metrics register on
// the given registry (nil uses the default registerer).
func NewClient(cfg *Config, logger *slog.Logger, reg prometheus.Registerer, httpClient *http.Client) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{
		config:  cfg,
		http:    httpClient,
		cache:   NewCache(cfg.CacheTTL),
		limiter: NewLimiter(cfg.RatePerSecond, cfg.Burst),
		logger:  logger.With("component", "radio"),
		metrics: NewMetrics(reg),
	}
}

// BandConditions returns the current solar/band conditions report.
func (c *Client) BandConditions(ctx context.Context) (*SolarReport, error) {
	v, err := c.fetch(ctx, endpointSolar, c.config.SolarURL, func(body []byte) (any, error) {
		return ParseSolar(body)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SolarReport), nil
}

// Spots returns the current activation spot list, most recent first.
func (c *Client) Spots(ctx context.Context) ([]Activation, error) {
	v, err := c.fetch(ctx, endpointSpots, c.config.SpotsURL, func(body []byte) (any, error) {
		return ParseSpots(body)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Activation), nil
}

// fetch resolves one endpoint through cache, limiter, and retries. The
// decoded value is cached under endpoint on success.
func (c *Client) fetch(ctx context.Context, endpoint, url string, decode func([]byte) (any, error)) (any, error) {
	if v, ok := c.cache.Get(endpoint); ok {
		c.metrics.CacheHits.WithLabelValues(endpoint).Inc()
		return v, nil
	}
	c.metrics.CacheMisses.WithLabelValues(endpoint).Inc()

	if err := c.limiter.Wait(ctx, c.config.MaxWait); err != nil {
		if err == ErrRateLimited {
			c.metrics.RateLimited.Inc()
			c.logger.Warn("fetch rejected by limiter", "endpoint", endpoint)
		}
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.config.RetryDelay); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		body, err := c.get(ctx, url)
		c.metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			lastErr = err
			c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
			c.logger.Warn("upstream fetch failed",
				"endpoint", endpoint,
				"attempt", attempt,
				"error", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		v, err := decode(body)
		if err != nil {
			lastErr = err
			c.metrics.UpstreamRequests.WithLabelValues(endpoint, "decode_error").Inc()
			c.logger.Warn("upstream response undecodable",
				"endpoint", endpoint,
				"attempt", attempt,
				"error", err)
			continue
		}

		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
		c.cache.Set(endpoint, v)
		return v, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/xml, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
