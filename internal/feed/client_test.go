package feed

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type lineSink struct {
	mu    sync.Mutex
	lines []string
	ch    chan struct{}
}

func newLineSink() *lineSink {
	return &lineSink{ch: make(chan struct{}, 64)}
}

func (s *lineSink) add(line []byte) error {
	s.mu.Lock()
	s.lines = append(s.lines, string(line))
	s.mu.Unlock()
	s.ch <- struct{}{}
	return nil
}

func (s *lineSink) wait(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-s.ch:
		case <-deadline:
			t.Fatalf("timed out waiting for %d lines (got %d)", n, i)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func TestClient_setState_ClearsStaleErrorOnConnected(t *testing.T) {
	c, err := NewTCP("t", "127.0.0.1:1", 0)
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}

	c.setState("error", "dial tcp: connection refused")
	c.setState("connected", "")

	snap := c.Snapshot()
	if snap.State != "connected" {
		t.Fatalf("state=%q want %q", snap.State, "connected")
	}
	if snap.LastError != "" {
		t.Fatalf("last_error=%q want empty", snap.LastError)
	}
	if snap.Kind != "tcp" || snap.Target != "127.0.0.1:1" {
		t.Fatalf("snapshot=%+v", snap)
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(ClientConfig{Open: func(context.Context) (io.ReadCloser, error) { return nil, nil }}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := NewClient(ClientConfig{Name: "x"}); err == nil {
		t.Fatalf("expected error for missing opener")
	}
	if _, err := NewTCP("x", "", 0); err == nil {
		t.Fatalf("expected error for missing addr")
	}
	if _, err := NewSerial("x", "", 38400); err == nil {
		t.Fatalf("expected error for missing device")
	}
}

func TestClient_TCPReadsLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.WriteString(conn, "!AIVDM,1,1,,A,15M67FC000G?ufbE`FepT@3n00Sa,0*5C\r\n\r\n  \n!AIVDM,1,1,,B,402R3b1v2IwMlr0UIJG8;2w00000,0*07\n")
		// Hold the connection until the client goes away.
		_, _ = io.Copy(io.Discard, conn)
	}()

	c, err := NewTCP("test", ln.Addr().String(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	sink := newLineSink()
	if err := c.Start(context.Background(), sink.add); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := sink.wait(t, 2)
	if len(got) != 2 || !strings.HasSuffix(got[0], "*5C") || !strings.HasPrefix(got[1], "!AIVDM,1,1,,B") {
		t.Fatalf("lines=%q", got)
	}
	snap := c.Snapshot()
	if snap.State != "connected" || snap.Lines != 2 || snap.LastSeenUTC == "" {
		t.Fatalf("snapshot=%+v", snap)
	}

	c.Close()
	<-serverDone
	if c.Snapshot().State != "stopped" {
		t.Fatalf("state=%q want stopped", c.Snapshot().State)
	}
}

func TestClient_StartTwice(t *testing.T) {
	c, err := NewTCP("t", "127.0.0.1:1", time.Hour)
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	defer c.Close()
	noop := func([]byte) error { return nil }
	if err := c.Start(context.Background(), noop); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(context.Background(), noop); err == nil {
		t.Fatalf("expected error on second Start")
	}
}

type scriptedOpener struct {
	mu      sync.Mutex
	streams []string
	calls   int
}

func (o *scriptedOpener) open(ctx context.Context) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if len(o.streams) == 0 {
		return nil, errors.New("no device")
	}
	s := o.streams[0]
	o.streams = o.streams[1:]
	return io.NopCloser(strings.NewReader(s)), nil
}

func TestClient_ReconnectsAfterEOF(t *testing.T) {
	op := &scriptedOpener{streams: []string{"a\n", "b\n"}}
	c, err := NewClient(ClientConfig{Name: "s", Kind: "serial", Target: "/dev/null", Open: op.open, ReconnectDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sink := newLineSink()
	if err := c.Start(context.Background(), sink.add); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := sink.wait(t, 2)
	c.Close()

	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("lines=%q", got)
	}
	op.mu.Lock()
	calls := op.calls
	op.mu.Unlock()
	if calls < 2 {
		t.Fatalf("opener calls=%d want >= 2", calls)
	}
	if c.Snapshot().State != "stopped" {
		t.Fatalf("state=%q want stopped", c.Snapshot().State)
	}
}

func TestClient_DropsOversizedLines(t *testing.T) {
	long := strings.Repeat("x", 100)
	op := &scriptedOpener{streams: []string{long + "\nok\n"}}
	c, err := NewClient(ClientConfig{Name: "s", Open: op.open, MaxLineBytes: 32, ReconnectDelay: time.Hour})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sink := newLineSink()
	if err := c.Start(context.Background(), sink.add); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := sink.wait(t, 1)
	c.Close()
	if len(got) != 1 || got[0] != "ok" {
		t.Fatalf("lines=%q", got)
	}
}

func TestClient_HandlerErrorRecorded(t *testing.T) {
	op := &scriptedOpener{streams: []string{"bad\n"}}
	c, err := NewClient(ClientConfig{Name: "s", Open: op.open, ReconnectDelay: time.Hour})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	called := make(chan struct{}, 1)
	err = c.Start(context.Background(), func([]byte) error {
		called <- struct{}{}
		return errors.New("rejected")
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-called
	c.Close()
	if c.Snapshot().Lines != 0 {
		t.Fatalf("lines=%d want 0", c.Snapshot().Lines)
	}
}

func TestClient_CloseBeforeStart(t *testing.T) {
	c, err := NewTCP("t", "127.0.0.1:1", 0)
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	c.Close()
	if err := c.Start(context.Background(), func([]byte) error { return nil }); err == nil {
		t.Fatalf("expected Start after Close to fail")
	}
}
