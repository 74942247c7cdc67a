// Package hoststub is a loopback stand-in for the Touch Portal host used by
// client tests. It accepts one connection, records every frame the plugin
// sends and checks each against the outbound message schema.
package hoststub

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/tpkit/protocol/frame"
	"github.com/danmuck/tpkit/protocol/schema"
)

type Host struct {
	ln net.Listener

	mu       sync.Mutex
	conn     net.Conn
	frames   [][]byte
	invalid  []error
	changed  chan struct{}
	accepted chan struct{}
	readDone chan struct{}
}

// Start listens on an ephemeral loopback port and closes itself on test
// cleanup.
func Start(t testing.TB) *Host {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("hoststub listen: %v", err)
	}
	h := &Host{
		ln:       ln,
		changed:  make(chan struct{}, 1),
		accepted: make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go h.accept()
	t.Cleanup(h.Close)
	return h
}

func (h *Host) Addr() string { return h.ln.Addr().String() }

func (h *Host) accept() {
	conn, err := h.ln.Accept()
	if err != nil {
		close(h.readDone)
		return
	}
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
	close(h.accepted)
	h.read(conn)
}

func (h *Host) read(conn net.Conn) {
	defer close(h.readDone)
	dec := frame.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			h.record(dec.Push(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func (h *Host) record(frames [][]byte) {
	if len(frames) == 0 {
		return
	}
	h.mu.Lock()
	for _, f := range frames {
		h.frames = append(h.frames, f)
		if err := validate(f); err != nil {
			h.invalid = append(h.invalid, err)
		}
	}
	h.mu.Unlock()
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func validate(f []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(f, &fields); err != nil {
		return fmt.Errorf("frame %q: %w", f, err)
	}
	var msgType string
	if err := json.Unmarshal(fields["type"], &msgType); err != nil {
		return fmt.Errorf("frame %q: type: %w", f, err)
	}
	if !schema.IsOutbound(msgType) {
		return fmt.Errorf("frame %q: not an outbound type", f)
	}
	return schema.Validate(msgType, fields)
}

// WaitConn blocks until the plugin connected.
func (h *Host) WaitConn(t testing.TB, timeout time.Duration) {
	t.Helper()
	select {
	case <-h.accepted:
	case <-time.After(timeout):
		t.Fatalf("hoststub: no connection within %v", timeout)
	}
}

// WaitFrames blocks until at least n frames were received and returns them.
func (h *Host) WaitFrames(t testing.TB, n int, timeout time.Duration) [][]byte {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		frames := h.Frames()
		if len(frames) >= n {
			return frames
		}
		select {
		case <-h.changed:
		case <-deadline.C:
			t.Fatalf("hoststub: got %d frames, want %d within %v", len(frames), n, timeout)
		}
	}
}

// WaitFrameTypes waits for n frames and returns their type fields.
func (h *Host) WaitFrameTypes(t testing.TB, n int, timeout time.Duration) []string {
	t.Helper()
	frames := h.WaitFrames(t, n, timeout)
	types := make([]string, len(frames))
	for i, f := range frames {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(f, &head); err != nil {
			t.Fatalf("hoststub: frame %q: %v", f, err)
		}
		types[i] = head.Type
	}
	return types
}

func (h *Host) Frames() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.frames))
	copy(out, h.frames)
	return out
}

// Invalid returns every schema violation seen so far.
func (h *Host) Invalid() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]error, len(h.invalid))
	copy(out, h.invalid)
	return out
}

// Send writes raw bytes to the plugin as-is; callers supply delimiters.
func (h *Host) Send(t testing.TB, raw string) {
	t.Helper()
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		t.Fatalf("hoststub: send before connect")
	}
	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("hoststub: send: %v", err)
	}
}

// SendJSON encodes v and writes it as one frame.
func (h *Host) SendJSON(t testing.TB, v any) {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("hoststub: marshal: %v", err)
	}
	h.Send(t, string(frame.Append(nil, payload)))
}

// CloseConn closes the accepted connection, as the host does on shutdown.
func (h *Host) CloseConn() {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// ResetConn aborts the accepted connection with a TCP reset so the plugin
// sees a socket error instead of EOF.
func (h *Host) ResetConn() {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	_ = conn.Close()
}

// WaitPeerClosed blocks until the plugin side closed its end.
func (h *Host) WaitPeerClosed(t testing.TB, timeout time.Duration) {
	t.Helper()
	select {
	case <-h.readDone:
	case <-time.After(timeout):
		t.Fatalf("hoststub: plugin did not close within %v", timeout)
	}
}

func (h *Host) Close() {
	_ = h.ln.Close()
	h.CloseConn()
}
