package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	logs "github.com/danmuck/tpkit/internal/logging"
	"github.com/danmuck/tpkit/internal/observability"
	"github.com/danmuck/tpkit/internal/session"
	"github.com/danmuck/tpkit/protocol"
)

// ConnState is the lifecycle position of a Client.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateConnected
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason names why a connection ended.
type Reason string

const (
	ReasonClosePlugin Reason = "closePlugin"
	ReasonPeerClosed  Reason = "peerClosed"
	ReasonSocketError Reason = "socketError"
	ReasonDialFailed  Reason = "dialFailed"
	ReasonLocalClose  Reason = "localClose"
)

// Termination describes the end of a connection.
type Termination struct {
	Reason   Reason
	HadError bool
	Err      error
	// Exit mirrors the exitOnClose option.
	Exit bool
}

// Client is one plugin connection to the host.
type Client struct {
	cfg    Config
	ev     events
	states *session.StateRegistry

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
	dial   func(ctx context.Context, network, addr string) (net.Conn, error)

	mu          sync.Mutex
	state       ConnState
	paired      bool
	conn        net.Conn
	log         logs.Logger
	builder     protocol.Builder
	closeReason Reason
	closeErr    error
	term        Termination
	// dialCancel aborts an in-flight dial on Close.
	dialCancel context.CancelFunc

	// writeMu serializes transport writes so frames never interleave.
	writeMu sync.Mutex
}

func New(opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Session = cfg.Session.WithDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	dialer := &net.Dialer{Timeout: cfg.Session.ConnectTimeout}
	return &Client{
		cfg:     cfg,
		states:  session.NewStateRegistry(),
		runCtx:  ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		dial:    dialer.DialContext,
		log:     logs.New(cfg.PluginID, cfg.LogCallback),
		builder: protocol.NewBuilder(cfg.PluginID),
	}
}

// Connect dials the host, emits connected, sends the pairing message and
// starts the read and dispatch goroutines. A dial failure emits socketError
// and disconnected and is also returned wrapped in ErrTransport.
func (c *Client) Connect(ctx context.Context, opts ConnectOptions) error {
	pluginID := strings.TrimSpace(opts.PluginID)
	if pluginID == "" {
		pluginID = strings.TrimSpace(c.cfg.PluginID)
	}
	if pluginID == "" {
		return fmt.Errorf("%w: connect", ErrMissingPluginID)
	}
	updateURL := opts.UpdateURL
	if updateURL == "" {
		updateURL = c.cfg.UpdateURL
	}

	dialCtx, dialCancel := context.WithCancel(ctx)
	defer dialCancel()

	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: state=%s", ErrAlreadyConnected, state)
	}
	c.state = StateConnecting
	c.dialCancel = dialCancel
	c.builder = protocol.NewBuilder(pluginID)
	c.log = c.log.WithPluginID(pluginID)
	log := c.log
	c.mu.Unlock()

	if updateURL != "" {
		go c.checkForUpdate(updateURL)
	}

	addr := c.cfg.Session.Address
	conn, err := c.dial(dialCtx, "tcp", addr)

	c.mu.Lock()
	c.dialCancel = nil
	if c.state != StateConnecting {
		// Close raced the dial; its reason wins over any dial error.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		c.finishPending()
		return fmt.Errorf("%w: closed while connecting", ErrNotConnected)
	}
	if err == nil {
		c.conn = conn
	}
	c.mu.Unlock()

	if err != nil {
		log.Errf("client.Connect dial failed addr=%q err=%v", addr, err)
		c.ev.socketError.emit(log, "socketError", err)
		c.finish(Termination{Reason: ReasonDialFailed, HadError: true, Err: err})
		return fmt.Errorf("%w: dial %s: %v", ErrTransport, addr, err)
	}

	log.Infof("Connected to Touch Portal addr=%q", addr)
	queue := newChunkQueue()
	go c.readLoop(conn, queue)
	go c.dispatchLoop(queue)

	c.ev.connected.emit(log, "connected", struct{}{})
	if err := c.pair(conn, pluginID); err != nil {
		return err
	}
	log.Infof("Pairing message sent")
	return nil
}

func (c *Client) pair(conn net.Conn, pluginID string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	start := time.Now()
	_ = conn.SetWriteDeadline(start.Add(c.cfg.Session.WriteTimeout))
	err := session.WritePairing(conn, pluginID)
	observability.RecordWrite(pluginID, []string{"pair"}, time.Since(start), err == nil)
	if err != nil {
		c.fail(err)
		return fmt.Errorf("%w: pair: %v", ErrTransport, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnecting {
		c.state = StateConnected
		c.paired = true
	}
	return nil
}

func (c *Client) readLoop(conn net.Conn, queue *chunkQueue) {
	buf := make([]byte, c.cfg.Session.ReadBufferBytes)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			queue.push(bytes.Clone(buf[:n]))
		}
		if err != nil {
			queue.close(err)
			return
		}
	}
}

// Close ends the connection gracefully. Writes already holding the writer
// finish first. Close is safe to call more than once.
func (c *Client) Close() error {
	c.shutdown(ReasonLocalClose, nil)
	return nil
}

// shutdown records reason and closes the transport once. The dispatch
// goroutine observes the closed stream and finishes the connection.
func (c *Client) shutdown(reason Reason, cause error) {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		c.finish(Termination{Reason: reason, HadError: cause != nil, Err: cause})
		return
	case StateClosing, StateClosed:
		c.mu.Unlock()
		return
	}
	c.state = StateClosing
	c.closeReason = reason
	c.closeErr = cause
	conn, dialCancel := c.conn, c.dialCancel
	c.mu.Unlock()

	if conn == nil {
		if dialCancel != nil {
			dialCancel()
		}
		return
	}
	if cause == nil {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
	}
	_ = conn.Close()
}

// fail tears the connection down after a transport write error.
func (c *Client) fail(err error) {
	c.shutdown(ReasonSocketError, err)
}

// finishPending completes a shutdown requested before a connection existed.
func (c *Client) finishPending() {
	c.mu.Lock()
	reason, err := c.closeReason, c.closeErr
	c.mu.Unlock()
	c.finish(Termination{Reason: reason, HadError: err != nil, Err: err})
}

func (c *Client) transportEnded(readErr error) {
	c.mu.Lock()
	reason, cause := c.closeReason, c.closeErr
	log := c.log
	c.mu.Unlock()

	var term Termination
	switch {
	case reason != "":
		term = Termination{Reason: reason, HadError: cause != nil, Err: cause}
	case readErr == nil || errors.Is(readErr, io.EOF):
		term = Termination{Reason: ReasonPeerClosed}
	default:
		term = Termination{Reason: ReasonSocketError, HadError: true, Err: readErr}
	}
	if term.HadError {
		log.Errf("client.transport socket error reason=%s err=%v", term.Reason, term.Err)
		c.ev.socketError.emit(log, "socketError", term.Err)
	}
	c.finish(term)
}

// finish moves the client to Closed exactly once.
func (c *Client) finish(term Termination) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.paired = false
	term.Exit = c.cfg.ExitOnClose
	c.term = term
	conn := c.conn
	log := c.log
	pluginID := c.builder.PluginID
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.states.Reset()
	observability.SetCustomStates(pluginID, 0)
	log.Warnf("Connection closed reason=%s error=%t", term.Reason, term.HadError)
	c.ev.disconnected.emit(log, "disconnected", DisconnectEvent{HadError: term.HadError, Err: term.Err})
	c.cancel()
	close(c.done)
}

// Done is closed once the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Wait blocks until the connection ends.
func (c *Client) Wait() Termination {
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.term
}

func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Paired reports whether the pairing message was written on this connection.
func (c *Client) Paired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paired
}

func (c *Client) PluginID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builder.PluginID
}

// States returns the custom states created on this connection, sorted by id.
func (c *Client) States() []CustomState {
	return c.states.List()
}

func (c *Client) logger() logs.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}
