package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"
)

// SupervisorState is the reconnection state machine's current phase.
type SupervisorState int32

const (
	SupervisorIdle SupervisorState = iota
	SupervisorConnecting
	SupervisorLive
	SupervisorBackoff
	SupervisorFatal
)

// String returns the string representation of the supervisor state.
func (s SupervisorState) String() string {
	switch s {
	case SupervisorIdle:
		return "Idle"
	case SupervisorConnecting:
		return "Connecting"
	case SupervisorLive:
		return "Live"
	case SupervisorBackoff:
		return "Backoff"
	case SupervisorFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// Supervisor owns the connection lifecycle. It keeps exactly one Session at
// a time, replaces it on failure after a capped exponential backoff, and
// shields the Router and Emitter from connection churn: they only ever see
// a stream of commands and a place to put responses.
type Supervisor struct {
	config  *Config
	token   string
	router  *Router
	emitter *Emitter

	state   atomic.Int32
	attempt atomic.Int64

	rng *rand.Rand

	logger  *slog.Logger
	metrics *Metrics

	// onStateChange, when set, is invoked synchronously on every state
	// transition. Set before Run; used by tests and the readiness probe.
	onStateChange func(SupervisorState)
}

// NewSupervisor creates a Supervisor for the given router. The emitter is
// created here and shared with the router's dispatch path.
func NewSupervisor(cfg *Config, token string, router *Router, logger *slog.Logger, metrics *Metrics) *Supervisor {
	return &Supervisor{
		config:  cfg,
		token:   token,
		router:  router,
		emitter: NewEmitter(logger, metrics),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  logger.With("component", "supervisor"),
		metrics: metrics,
	}
}

// Emitter returns the response emitter bound to the current live session.
func (s *Supervisor) Emitter() *Emitter {
	return s.emitter
}

// State returns the supervisor's current state.
func (s *Supervisor) State() SupervisorState {
	return SupervisorState(s.state.Load())
}

// Attempt returns the current failed-connect counter. It resets to zero on
// every successful transition to Live.
func (s *Supervisor) Attempt() int {
	return int(s.attempt.Load())
}

// OnStateChange registers a synchronous state transition callback. Must be
// called before Run.
func (s *Supervisor) OnStateChange(fn func(SupervisorState)) {
	s.onStateChange = fn
}

func (s *Supervisor) setState(st SupervisorState) {
	s.state.Store(int32(st))
	if s.onStateChange != nil {
		s.onStateChange(st)
	}
}

// Run drives the connection until ctx is cancelled or a fatal credential
// rejection occurs. The state sequence per connection is
// Connecting → Live → Backoff → Connecting → ...; a fatal AuthError moves
// to Fatal and returns it so the process can exit with a distinct status.
func (s *Supervisor) Run(ctx context.Context) error {
	specs := s.router.Specs()

	for {
		if err := ctx.Err(); err != nil {
			s.setState(SupervisorIdle)
			return err
		}

		s.setState(SupervisorConnecting)
		sess, err := Connect(ctx, s.config, s.token, specs, s.logger, s.metrics)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) && authErr.Fatal() {
				s.setState(SupervisorFatal)
				s.logger.Error("fatal handshake rejection, not retrying", "status", authErr.Status.String())
				return fmt.Errorf("client: fatal auth failure: %w", err)
			}

			attempt := s.attempt.Add(1)
			s.metrics.ConnectFailures.Inc()
			delay := backoffDelay(s.config.BackoffBase, s.config.BackoffCap, int(attempt-1), s.rng)
			s.logger.Warn("connect failed, backing off",
				"error", err,
				"attempt", attempt,
				"delay", delay)

			s.setState(SupervisorBackoff)
			if !s.sleep(ctx, delay) {
				s.setState(SupervisorIdle)
				return ctx.Err()
			}
			continue
		}

		if s.attempt.Swap(0) > 0 {
			s.metrics.Reconnects.Inc()
		}
		s.setState(SupervisorLive)
		s.metrics.SessionUp.Set(1)
		s.emitter.Bind(sess)
		sess.Start()

		err = s.serve(ctx, sess)

		s.emitter.Unbind(sess)
		s.metrics.SessionUp.Set(0)

		if ctx.Err() != nil {
			// Graceful shutdown: let the core know, then let in-flight
			// handlers finish. Their responses ride the draining session
			// if it is still writable, and are dropped otherwise.
			sess.Drain()
			s.router.Wait()
			sess.Close()
			s.setState(SupervisorIdle)
			return ctx.Err()
		}

		sess.Close()
		s.logger.Warn("session lost, reconnecting", "error", err)

		delay := backoffDelay(s.config.BackoffBase, s.config.BackoffCap, 0, s.rng)
		s.setState(SupervisorBackoff)
		if !s.sleep(ctx, delay) {
			s.setState(SupervisorIdle)
			return ctx.Err()
		}
	}
}

// serve consumes commands from the session until it dies, the liveness
// threshold is exceeded, or ctx is cancelled.
func (s *Supervisor) serve(ctx context.Context, sess *Session) error {
	liveness := time.NewTicker(s.config.LivenessTimeout / 2)
	defer liveness.Stop()

	// Responses are scoped to the session that carried the request: a
	// handler straddling a reconnect drops its response instead of
	// misattributing it to the replacement session.
	sink := s.emitter.For(sess)

	for {
		select {
		case ce, ok := <-sess.Commands():
			if !ok {
				return &TransportError{Op: "read", Err: ErrSessionClosed}
			}
			s.router.Dispatch(ctx, ce, sink)

		case <-liveness.C:
			if sess.IdleFor() > s.config.LivenessTimeout {
				return &TransportError{Op: "liveness", Err: fmt.Errorf("no activity for %s", sess.IdleFor().Round(time.Second))}
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sleep waits for the given delay, returning false if ctx was cancelled
// first. A timer instead of time.Sleep keeps shutdown prompt during long
// backoff windows.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
