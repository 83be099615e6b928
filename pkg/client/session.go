package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/seabird-chat/seabird-radio/pkg/protocol"
)

// SessionState is the lifecycle state of a Session. Transitions are
// monotonic: a session never returns to a state it has left. Reconnection
// replaces the session instance instead of resetting it.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateDraining
	StateClosed
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateAuthenticated:
		return "Authenticated"
	case StateDraining:
		return "Draining"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Session is one logical authenticated connection to the core. It is
// created by Connect, owned exclusively by the Supervisor, and discarded on
// disconnect.
type Session struct {
	// ID is a locally generated identifier for log correlation.
	ID string

	// CoreSessionID is the identifier assigned by the core during the
	// handshake.
	CoreSessionID string

	conn    *websocket.Conn
	writeMu sync.Mutex // Serializes all writes to conn

	state      atomic.Int32
	lastActive atomic.Int64 // Unix nanos of the last successful send or receive

	commands  chan *protocol.CommandEnvelope
	done      chan struct{}
	closeOnce sync.Once

	config  *Config
	logger  *slog.Logger
	metrics *Metrics
}

// Connect dials the core, performs the authentication handshake with the
// given token, and registers the command set. On success the returned
// session is Authenticated; call Start to begin the read and heartbeat
// loops.
//
// A network failure yields a *TransportError; a handshake rejection by the
// core yields an *AuthError. The two are distinguished so that fatal
// credential rejections do not trigger retry storms.
func Connect(ctx context.Context, cfg *Config, token string, commands []protocol.CommandSpec, logger *slog.Logger, metrics *Metrics) (*Session, error) {
	dialer := websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	conn.SetReadLimit(cfg.MaxMessageSize)

	s := &Session{
		ID:       uuid.NewString(),
		conn:     conn,
		commands: make(chan *protocol.CommandEnvelope, cfg.CommandBuffer),
		done:     make(chan struct{}),
		config:   cfg,
		metrics:  metrics,
	}
	s.logger = logger.With("session_id", s.ID)
	s.state.Store(int32(StateConnecting))

	if err := s.handshake(token, commands); err != nil {
		conn.Close()
		return nil, err
	}

	s.touch()
	s.logger.Info("session authenticated",
		"core_session_id", s.CoreSessionID,
		"commands", len(commands))

	return s, nil
}

// handshake sends PluginHello and waits for CoreHello within the handshake
// timeout.
func (s *Session) handshake(token string, commands []protocol.CommandSpec) error {
	hello := protocol.NewPluginHello(token, s.config.PluginName, commands)
	frame := protocol.NewFrame(protocol.FrameHandshake, protocol.EncodePluginHello(hello))

	deadline := time.Now().Add(s.config.HandshakeTimeout)
	s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}

	s.conn.SetReadDeadline(deadline)
	_, msg, err := s.conn.ReadMessage()
	if err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}

	reply, err := protocol.DecodeFrame(msg)
	if err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}
	if reply.Type != protocol.FrameHandshake {
		return &TransportError{Op: "handshake", Err: errors.New("unexpected frame type " + reply.Type.String())}
	}

	coreHello, err := protocol.DecodeCoreHello(reply.Payload)
	if err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}
	if coreHello.Status != protocol.StatusOK {
		return &AuthError{Status: coreHello.Status}
	}

	s.CoreSessionID = coreHello.SessionID
	s.state.Store(int32(StateAuthenticated))
	return nil
}

// Start launches the read and heartbeat loops. Call exactly once, after a
// successful Connect.
func (s *Session) Start() {
	go s.readLoop()
	go s.heartbeatLoop()
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Commands returns the inbound command channel. It is closed when the
// connection terminates for any reason; every envelope fully read off the
// wire is delivered before the close.
func (s *Session) Commands() <-chan *protocol.CommandEnvelope {
	return s.commands
}

// IdleFor returns how long ago the last successful send or receive was.
func (s *Session) IdleFor() time.Duration {
	return time.Since(time.Unix(0, s.lastActive.Load()))
}

// Send writes one response envelope onto the stream. Writes are serialized:
// no two frames interleave on the wire. Fails with a *TransportError
// wrapping ErrSessionClosed once the session has left the Authenticated
// state (Draining still permits writes so in-flight work can finish during
// graceful shutdown).
func (s *Session) Send(re *protocol.ResponseEnvelope) error {
	switch s.State() {
	case StateAuthenticated, StateDraining:
	default:
		return &TransportError{Op: "send", Err: ErrSessionClosed}
	}

	frame := protocol.NewFrame(protocol.FrameResponse, protocol.EncodeResponse(re))
	data := frame.Encode()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.logger.Error("response write failed", "error", err, "correlation_id", re.CorrelationID)
		s.Close()
		return &TransportError{Op: "send", Err: err}
	}

	s.touch()
	return nil
}

// Drain marks the session as draining and notifies the core that the plugin
// is shutting down. Pending sends are still allowed; no new commands will be
// processed by the caller.
func (s *Session) Drain() {
	if !s.advance(StateDraining) {
		return
	}
	ct, cm := protocol.NewClose(protocol.CloseDraining, "plugin shutting down")
	s.sendControl(ct, cm)
}

// Close tears the session down. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.advance(StateClosed)
		close(s.done)
		s.conn.Close()
		s.logger.Debug("session closed")
	})
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// advance moves the state forward to target. Returns false if the session
// is already at or past it; states are never revisited.
func (s *Session) advance(target SessionState) bool {
	for {
		current := s.state.Load()
		if current >= int32(target) {
			return false
		}
		if s.state.CompareAndSwap(current, int32(target)) {
			return true
		}
	}
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// readLoop reads frames off the wire until the connection dies, delivering
// commands in wire order. The read deadline doubles as the liveness bound:
// a half-open connection times out after LivenessTimeout.
func (s *Session) readLoop() {
	defer close(s.commands)
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.LivenessTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.touch()

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameCommand:
			ce, err := protocol.DecodeCommand(frame.Payload)
			if err != nil {
				s.logger.Error("command decode error", "error", err)
				continue
			}
			// Blocks when the command buffer is full: backpressure
			// propagates from the dispatch semaphore to the wire.
			select {
			case s.commands <- ce:
			case <-s.done:
				return
			}

		case protocol.FrameControl:
			if !s.handleControl(frame.Payload) {
				return
			}

		case protocol.FrameError:
			em, err := protocol.DecodeErrorMessage(frame.Payload)
			if err != nil {
				s.logger.Error("error frame decode error", "error", err)
				continue
			}
			s.logger.Warn("core reported error", "code", em.Code.String(), "message", em.Message, "fatal", em.Fatal)
			if em.Fatal {
				return
			}

		default:
			s.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

// handleControl processes one control frame. Returns false when the read
// loop should terminate.
func (s *Session) handleControl(payload []byte) bool {
	ct, data, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return true
	}

	switch ct {
	case protocol.ControlPing:
		if pp, ok := data.(*protocol.PingPong); ok {
			s.sendControl(protocol.NewPong(pp.Timestamp))
		}
		return true

	case protocol.ControlPong:
		s.logger.Debug("received pong")
		return true

	case protocol.ControlClose:
		if cm, ok := data.(*protocol.CloseMessage); ok {
			s.logger.Info("core closing session", "reason", cm.Reason.String(), "message", cm.Message)
		}
		return false

	default:
		s.logger.Warn("unknown control type", "type", ct)
		return true
	}
}

// heartbeatLoop pings the core at the configured interval. The pong keeps
// the read deadline fresh; a dead peer surfaces as a read timeout.
func (s *Session) heartbeatLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ct, pp := protocol.NewPing(uint64(time.Now().UnixMilli()))
			if err := s.sendControl(ct, pp); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) sendControl(ct protocol.ControlType, payload any) error {
	if s.State() == StateClosed {
		return ErrSessionClosed
	}

	frame := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ct, payload))
	data := frame.Encode()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.logger.Debug("control write failed", "type", ct.String(), "error", err)
		s.Close()
		return err
	}

	s.touch()
	return nil
}
