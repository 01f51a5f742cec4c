// Package feed reads newline-delimited NMEA from AIS receivers: TCP feeds
// (aggregators, network receivers) and local serial devices. Each source
// reconnects on failure and exposes a status snapshot for the web API.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// LineFunc receives one trimmed, non-empty line. The slice is owned by the
// callee. It should be fast; if it can block, it should offload work.
type LineFunc func(line []byte) error

// Opener connects to the underlying device or endpoint.
type Opener func(ctx context.Context) (io.ReadCloser, error)

type ClientConfig struct {
	Name string
	// Kind is reported in snapshots ("tcp", "serial").
	Kind string
	// Target is the address or device path, for snapshots and logs.
	Target string

	Open Opener

	ReconnectDelay time.Duration
	MaxLineBytes   int
}

// Client runs one source. It is safe for concurrent use.
type Client struct {
	cfg ClientConfig

	started atomic.Bool
	closed  atomic.Bool

	mu       sync.RWMutex
	state    string
	lastErr  string
	lastSeen time.Time
	count    uint64

	cancel context.CancelFunc
	done   chan struct{}
}

type Snapshot struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Target      string `json:"target"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	LastSeenUTC string `json:"last_seen_utc,omitempty"`
	Lines       uint64 `json:"lines"`
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("feed name is required")
	}
	if cfg.Open == nil {
		return nil, fmt.Errorf("feed %s: opener is required", cfg.Name)
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 1 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 4 * 1024
	}
	return &Client{cfg: cfg, state: "stopped", done: make(chan struct{})}, nil
}

// NewTCP returns a client that dials addr and reads lines until the
// connection drops, then redials.
func NewTCP(name, addr string, reconnectDelay time.Duration) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("feed %s: tcp addr is required", name)
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return NewClient(ClientConfig{
		Name:           name,
		Kind:           "tcp",
		Target:         addr,
		ReconnectDelay: reconnectDelay,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		},
	})
}

// NewSerial returns a client reading a receiver attached to a serial device.
func NewSerial(name, device string, baud int) (*Client, error) {
	if device == "" {
		return nil, fmt.Errorf("feed %s: serial device is required", name)
	}
	return NewClient(ClientConfig{
		Name:           name,
		Kind:           "serial",
		Target:         device,
		ReconnectDelay: 2 * time.Second,
		Open: func(context.Context) (io.ReadCloser, error) {
			return openSerial(device, baud)
		},
	})
}

func (c *Client) Name() string { return c.cfg.Name }

// Start runs the read loop in the background until ctx is cancelled or Close
// is called.
func (c *Client) Start(ctx context.Context, onLine LineFunc) error {
	if c == nil {
		return fmt.Errorf("feed client is nil")
	}
	if c.closed.Load() {
		return fmt.Errorf("feed client is closed")
	}
	if onLine == nil {
		return fmt.Errorf("feed onLine is nil")
	}
	if c.started.Swap(true) {
		return fmt.Errorf("feed client already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setState("connecting", "")

	go func() {
		defer close(c.done)
		c.runLoop(runCtx, onLine)
	}()
	return nil
}

// Close stops the client and waits for its goroutine to exit.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.closed.Swap(true) {
		return
	}
	if !c.started.Load() {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

func (c *Client) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := Snapshot{
		Name:      c.cfg.Name,
		Kind:      c.cfg.Kind,
		Target:    c.cfg.Target,
		State:     c.state,
		LastError: c.lastErr,
		Lines:     c.count,
	}
	if !c.lastSeen.IsZero() {
		out.LastSeenUTC = c.lastSeen.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func (c *Client) runLoop(ctx context.Context, onLine LineFunc) {
	for {
		if ctx.Err() != nil {
			c.setState("stopped", "")
			return
		}

		c.setState("connecting", "")
		rc, err := c.cfg.Open(ctx)
		if err != nil {
			c.setState("error", err.Error())
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				c.setState("stopped", "")
				return
			}
			continue
		}

		c.setState("connected", "")
		// A blocked read only returns once the stream is closed.
		stop := context.AfterFunc(ctx, func() { _ = rc.Close() })
		err = c.readLines(rc, onLine)
		stop()
		_ = rc.Close()

		if ctx.Err() != nil {
			c.setState("stopped", "")
			return
		}
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			c.setState("disconnected", "")
		} else {
			c.setState("disconnected", err.Error())
		}

		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			c.setState("stopped", "")
			return
		}
	}
}

func (c *Client) readLines(r io.Reader, onLine LineFunc) error {
	reader := bufio.NewReaderSize(r, c.cfg.MaxLineBytes)
	var oversized bool
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			return err
		}
		if isPrefix {
			// Drop the rest of an overlong line.
			if !oversized {
				c.setState("connected", fmt.Sprintf("line too large (> %d bytes)", c.cfg.MaxLineBytes))
			}
			oversized = true
			continue
		}
		if oversized {
			oversized = false
			continue
		}

		line := bytes.TrimSpace(chunk)
		if len(line) == 0 {
			continue
		}
		raw := append([]byte(nil), line...)
		if err := onLine(raw); err != nil {
			c.setState("connected", "handler: "+err.Error())
			continue
		}

		c.mu.Lock()
		c.lastSeen = time.Now().UTC()
		c.count++
		c.mu.Unlock()
	}
}

func (c *Client) setState(state string, lastErr string) {
	c.mu.Lock()
	c.state = state
	if lastErr != "" {
		c.lastErr = lastErr
	} else if state == "connected" || state == "connecting" || state == "stopped" {
		c.lastErr = ""
	}
	c.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
