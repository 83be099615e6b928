package client

import (
	"log/slog"
	"sync/atomic"

	"github.com/seabird-chat/seabird-radio/pkg/protocol"
)

// ResponseSink accepts completed command responses. The Router answers
// through a sink so dispatch does not care whether a live session exists.
type ResponseSink interface {
	// Emit delivers one response. Returns false if it was dropped.
	Emit(re *protocol.ResponseEnvelope) bool
}

// Emitter is the single point that writes responses onto the current live
// session. Handlers finishing after their session died get their responses
// dropped here: a stale response must never land on a newer session, where
// it would belong to a different logical connection. Delivery is
// at-most-once; drops are counted.
type Emitter struct {
	current atomic.Pointer[Session]

	logger  *slog.Logger
	metrics *Metrics
}

// NewEmitter creates an emitter with no bound session.
func NewEmitter(logger *slog.Logger, metrics *Metrics) *Emitter {
	return &Emitter{
		logger:  logger.With("component", "emitter"),
		metrics: metrics,
	}
}

// Bind makes sess the current target for Emit.
func (e *Emitter) Bind(sess *Session) {
	e.current.Store(sess)
}

// Unbind clears the binding, but only if sess is still the current one, so
// a late Unbind for a dead session never clobbers its replacement.
func (e *Emitter) Unbind(sess *Session) {
	e.current.CompareAndSwap(sess, nil)
}

// Emit writes one response onto the current session. The session's write
// path serializes frames, so concurrent completions never interleave on the
// wire. Returns true if the response was queued for write.
func (e *Emitter) Emit(re *protocol.ResponseEnvelope) bool {
	sess := e.current.Load()
	if sess == nil {
		e.drop(re, "no live session")
		return false
	}

	if err := sess.Send(re); err != nil {
		e.drop(re, err.Error())
		return false
	}
	return true
}

// For returns a sink scoped to sess. Responses are written through sess
// itself, never through whatever session is bound at completion time, so a
// handler that finishes after a reconnect cannot write onto the replacement
// session.
func (e *Emitter) For(sess *Session) ResponseSink {
	return &sessionSink{emitter: e, sess: sess}
}

type sessionSink struct {
	emitter *Emitter
	sess    *Session
}

func (s *sessionSink) Emit(re *protocol.ResponseEnvelope) bool {
	if s.emitter.current.Load() != s.sess {
		s.emitter.drop(re, "session superseded")
		return false
	}
	if err := s.sess.Send(re); err != nil {
		s.emitter.drop(re, err.Error())
		return false
	}
	return true
}

func (e *Emitter) drop(re *protocol.ResponseEnvelope, reason string) {
	e.metrics.ResponsesDropped.Inc()
	e.logger.Debug("response dropped",
		"correlation_id", re.CorrelationID,
		"code", re.Code.String(),
		"reason", reason)
}
