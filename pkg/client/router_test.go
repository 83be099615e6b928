package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seabird-chat/seabird-radio/pkg/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// captureSink records emitted responses for assertions.
type captureSink struct {
	mu        sync.Mutex
	responses []*protocol.ResponseEnvelope
}

func (c *captureSink) Emit(re *protocol.ResponseEnvelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, re)
	return true
}

func (c *captureSink) all() []*protocol.ResponseEnvelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.ResponseEnvelope(nil), c.responses...)
}

func (c *captureSink) waitFor(t *testing.T, n int) []*protocol.ResponseEnvelope {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.all(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d responses, have %d", n, len(c.all()))
	return nil
}

func echoHandler() Handler {
	return Handler{
		Spec:    protocol.CommandSpec{Name: "echo", ShortHelp: "echo", FullHelp: "echo <words...>"},
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			return strings.Join(ce.Args, " "), nil
		},
	}
}

func newTestRouter(t *testing.T, handlers ...Handler) *Router {
	t.Helper()
	r, err := NewRouter(DefaultConfig(), testLogger(), testMetrics(), handlers...)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func envelope(id, name string, args ...string) *protocol.CommandEnvelope {
	return &protocol.CommandEnvelope{
		CorrelationID: id,
		Name:          name,
		Args:          args,
		Source:        protocol.Source{ChannelID: "chan", UserID: "user", UserDisplay: "alice"},
	}
}

func TestNewRouterRejectsDuplicates(t *testing.T) {
	_, err := NewRouter(DefaultConfig(), testLogger(), testMetrics(), echoHandler(), echoHandler())
	if !errors.Is(err, ErrDuplicateCommand) {
		t.Errorf("got %v, want ErrDuplicateCommand", err)
	}
}

func TestNewRouterRejectsEmptyName(t *testing.T) {
	h := echoHandler()
	h.Spec.Name = ""
	if _, err := NewRouter(DefaultConfig(), testLogger(), testMetrics(), h); err == nil {
		t.Error("expected error for empty command name")
	}
}

func TestRouterSpecsSorted(t *testing.T) {
	b := echoHandler()
	b.Spec.Name = "bands"
	p := echoHandler()
	p.Spec.Name = "pota"
	r := newTestRouter(t, p, b)

	specs := r.Specs()
	if len(specs) != 2 || specs[0].Name != "bands" || specs[1].Name != "pota" {
		t.Errorf("specs not sorted by name: %+v", specs)
	}
}

func TestRouterUnknownCommand(t *testing.T) {
	r := newTestRouter(t, echoHandler())
	sink := &captureSink{}

	r.Dispatch(context.Background(), envelope("c1", "nope"), sink)

	got := sink.all()
	if len(got) != 1 {
		t.Fatalf("got %d responses, want 1", len(got))
	}
	if got[0].Code != protocol.CodeUnknownCommand {
		t.Errorf("code = %s, want CodeUnknownCommand", got[0].Code)
	}
	if got[0].CorrelationID != "c1" {
		t.Errorf("correlation id = %q, want c1", got[0].CorrelationID)
	}
}

func TestRouterBadArguments(t *testing.T) {
	r := newTestRouter(t, echoHandler())
	sink := &captureSink{}

	tests := []struct {
		name string
		args []string
	}{
		{name: "too few", args: nil},
	}
	for _, tt := range tests {
		r.Dispatch(context.Background(), envelope("c1", "echo", tt.args...), sink)
	}

	got := sink.all()
	if len(got) != 1 {
		t.Fatalf("got %d responses, want 1", len(got))
	}
	if got[0].Code != protocol.CodeBadArguments {
		t.Errorf("code = %s, want CodeBadArguments", got[0].Code)
	}
	if !strings.Contains(got[0].Text, "echo <words...>") {
		t.Errorf("text %q should contain usage", got[0].Text)
	}
}

func TestRouterMaxArgsEnforced(t *testing.T) {
	h := echoHandler()
	h.Spec.Name = "one"
	h.MinArgs = 1
	h.MaxArgs = 1
	r := newTestRouter(t, h)
	sink := &captureSink{}

	r.Dispatch(context.Background(), envelope("c1", "one", "a", "b"), sink)

	got := sink.all()
	if len(got) != 1 || got[0].Code != protocol.CodeBadArguments {
		t.Fatalf("got %+v, want one CodeBadArguments response", got)
	}
}

func TestRouterSuccess(t *testing.T) {
	r := newTestRouter(t, echoHandler())
	sink := &captureSink{}

	r.Dispatch(context.Background(), envelope("c1", "echo", "hello", "world"), sink)
	r.Wait()

	got := sink.waitFor(t, 1)
	if got[0].Code != protocol.CodeOK {
		t.Errorf("code = %s, want CodeOK", got[0].Code)
	}
	if got[0].Text != "hello world" {
		t.Errorf("text = %q, want %q", got[0].Text, "hello world")
	}
	if got[0].CorrelationID != "c1" {
		t.Errorf("correlation id = %q, want c1", got[0].CorrelationID)
	}
}

func TestRouterCodedError(t *testing.T) {
	h := Handler{
		Spec:    protocol.CommandSpec{Name: "limited", FullHelp: "limited"},
		MaxArgs: -1,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			return "", NewCodedError(protocol.CodeRateLimited, "try again shortly")
		},
	}
	r := newTestRouter(t, h)
	sink := &captureSink{}

	r.Dispatch(context.Background(), envelope("c1", "limited"), sink)
	r.Wait()

	got := sink.waitFor(t, 1)
	if got[0].Code != protocol.CodeRateLimited {
		t.Errorf("code = %s, want CodeRateLimited", got[0].Code)
	}
	if got[0].Text != "try again shortly" {
		t.Errorf("text = %q", got[0].Text)
	}
}

func TestRouterPanicRecovery(t *testing.T) {
	h := Handler{
		Spec:    protocol.CommandSpec{Name: "boom", FullHelp: "boom"},
		MaxArgs: -1,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			panic("kaboom")
		},
	}
	r := newTestRouter(t, h)
	sink := &captureSink{}

	r.Dispatch(context.Background(), envelope("c1", "boom"), sink)
	r.Wait()

	got := sink.waitFor(t, 1)
	if got[0].Code != protocol.CodeHandlerError {
		t.Errorf("code = %s, want CodeHandlerError", got[0].Code)
	}
	if got[0].Text != "internal error" {
		t.Errorf("text = %q, want generic text", got[0].Text)
	}
}

func TestRouterGenericError(t *testing.T) {
	h := Handler{
		Spec:    protocol.CommandSpec{Name: "fail", FullHelp: "fail"},
		MaxArgs: -1,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			return "", errors.New("with sensitive detail")
		},
	}
	r := newTestRouter(t, h)
	sink := &captureSink{}

	r.Dispatch(context.Background(), envelope("c1", "fail"), sink)
	r.Wait()

	got := sink.waitFor(t, 1)
	if got[0].Code != protocol.CodeHandlerError {
		t.Errorf("code = %s, want CodeHandlerError", got[0].Code)
	}
	if strings.Contains(got[0].Text, "sensitive") {
		t.Errorf("internal error detail leaked to user: %q", got[0].Text)
	}
}

func TestRouterTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InvocationTimeout = 20 * time.Millisecond

	h := Handler{
		Spec:    protocol.CommandSpec{Name: "slow", FullHelp: "slow"},
		MaxArgs: -1,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	r, err := NewRouter(cfg, testLogger(), testMetrics(), h)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	sink := &captureSink{}

	r.Dispatch(context.Background(), envelope("c1", "slow"), sink)
	r.Wait()

	got := sink.waitFor(t, 1)
	if got[0].Code != protocol.CodeTimeout {
		t.Errorf("code = %s, want CodeTimeout", got[0].Code)
	}
}

func TestRouterConcurrencyBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInFlight = 2

	var running, peak atomic.Int32
	release := make(chan struct{})
	h := Handler{
		Spec:    protocol.CommandSpec{Name: "work", FullHelp: "work"},
		MaxArgs: -1,
		Fn: func(ctx context.Context, ce *protocol.CommandEnvelope) (string, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return "done", nil
		},
	}
	r, err := NewRouter(cfg, testLogger(), testMetrics(), h)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	sink := &captureSink{}

	var dispatched sync.WaitGroup
	for i := 0; i < 5; i++ {
		dispatched.Add(1)
		go func(i int) {
			defer dispatched.Done()
			r.Dispatch(context.Background(), envelope(fmt.Sprintf("c%d", i), "work"), sink)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	dispatched.Wait()
	r.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
	sink.waitFor(t, 5)
}

func TestRouterExactlyOneResponsePerCommand(t *testing.T) {
	r := newTestRouter(t, echoHandler())
	sink := &captureSink{}

	ids := []string{"a", "b", "c", "d", "e"}
	for i, id := range ids {
		if i%2 == 0 {
			r.Dispatch(context.Background(), envelope(id, "echo", "hi"), sink)
		} else {
			r.Dispatch(context.Background(), envelope(id, "missing"), sink)
		}
	}
	r.Wait()

	got := sink.waitFor(t, len(ids))
	var gotIDs []string
	for _, re := range got {
		gotIDs = append(gotIDs, re.CorrelationID)
	}
	sort.Strings(gotIDs)
	want := append([]string(nil), ids...)
	sort.Strings(want)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %d responses, want %d", len(gotIDs), len(want))
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Errorf("response ids = %v, want %v", gotIDs, want)
			break
		}
	}
}
