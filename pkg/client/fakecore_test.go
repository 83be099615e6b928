package client

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seabird-chat/seabird-radio/pkg/protocol"
)

// fakeCore is an in-process core: it upgrades connections, answers the
// handshake with a configurable status, and hands accepted connections to
// the test for driving.
type fakeCore struct {
	srv    *httptest.Server
	status atomic.Int32
	conns  chan *coreConn
}

type coreConn struct {
	ws    *websocket.Conn
	hello *protocol.PluginHello
}

func newFakeCore(t *testing.T, status protocol.HandshakeStatus) *fakeCore {
	t.Helper()
	fc := &fakeCore{conns: make(chan *coreConn, 8)}
	fc.status.Store(int32(status))

	upgrader := websocket.Upgrader{}
	fc.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		ws.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := ws.ReadMessage()
		if err != nil {
			ws.Close()
			return
		}
		frame, err := protocol.DecodeFrame(msg)
		if err != nil || frame.Type != protocol.FrameHandshake {
			ws.Close()
			return
		}
		hello, err := protocol.DecodePluginHello(frame.Payload)
		if err != nil {
			ws.Close()
			return
		}

		status := protocol.HandshakeStatus(fc.status.Load())
		reply := protocol.NewFrame(protocol.FrameHandshake, protocol.EncodeCoreHello(&protocol.CoreHello{
			Status:     status,
			SessionID:  "core-session-1",
			ServerTime: uint64(time.Now().UnixMilli()),
		}))
		if err := ws.WriteMessage(websocket.BinaryMessage, reply.Encode()); err != nil {
			ws.Close()
			return
		}
		if status != protocol.StatusOK {
			ws.Close()
			return
		}

		ws.SetReadDeadline(time.Time{})
		fc.conns <- &coreConn{ws: ws, hello: hello}
	}))
	t.Cleanup(fc.srv.Close)
	return fc
}

func (fc *fakeCore) url() string {
	return "ws" + strings.TrimPrefix(fc.srv.URL, "http")
}

func (fc *fakeCore) setStatus(status protocol.HandshakeStatus) {
	fc.status.Store(int32(status))
}

// accept waits for the next authenticated connection.
func (fc *fakeCore) accept(t *testing.T) *coreConn {
	t.Helper()
	select {
	case c := <-fc.conns:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for plugin connection")
		return nil
	}
}

func (c *coreConn) sendCommand(t *testing.T, ce *protocol.CommandEnvelope) {
	t.Helper()
	frame := protocol.NewFrame(protocol.FrameCommand, protocol.EncodeCommand(ce))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		t.Fatalf("send command: %v", err)
	}
}

func (c *coreConn) sendControl(t *testing.T, ct protocol.ControlType, payload any) {
	t.Helper()
	frame := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ct, payload))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		t.Fatalf("send control: %v", err)
	}
}

func (c *coreConn) readFrame(t *testing.T) *protocol.Frame {
	t.Helper()
	c.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := c.ws.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return frame
}

// readResponse reads frames, skipping control traffic, until a response
// arrives.
func (c *coreConn) readResponse(t *testing.T) *protocol.ResponseEnvelope {
	t.Helper()
	for {
		frame := c.readFrame(t)
		if frame.Type != protocol.FrameResponse {
			continue
		}
		re, err := protocol.DecodeResponse(frame.Payload)
		if err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return re
	}
}

// expectNoResponse fails the test if a response frame arrives within d.
// Control traffic is ignored; a read timeout or connection teardown means
// nothing was delivered.
func (c *coreConn) expectNoResponse(t *testing.T, d time.Duration) {
	t.Helper()
	deadline := time.Now().Add(d)
	for {
		c.ws.SetReadDeadline(deadline)
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return
			}
			return
		}
		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if frame.Type == protocol.FrameResponse {
			re, _ := protocol.DecodeResponse(frame.Payload)
			t.Fatalf("unexpected response delivered: %+v", re)
		}
	}
}

func (c *coreConn) close() {
	c.ws.Close()
}

func testSessionConfig(url string) *Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.DialTimeout = 2 * time.Second
	cfg.HandshakeTimeout = 2 * time.Second
	cfg.WriteTimeout = 2 * time.Second
	cfg.BackoffBase = time.Millisecond
	cfg.BackoffCap = 10 * time.Millisecond
	return cfg
}
