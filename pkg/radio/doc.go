// Package radio resolves radio and propagation metadata queries against
// external sources: solar/band conditions from hamqsl and Parks on the Air
// activation spots. It shields command handlers from upstream latency and
// rate limits with a TTL cache, a token-bucket limiter with a bounded wait,
// and a small fixed retry budget. Upstream failures are translated into the
// package's error kinds before they reach callers; raw transport errors
// never escape.
package radio
