// Package conn implements the Connection component: one transport endpoint
// (plain TCP or TLS-over-TCP) to a client's host, with an idle ("noop")
// timer that shuts the endpoint down when it fires.
//
// Connect performs blocking I/O and is meant to be driven from a dedicated
// goroutine (the Client event loop spawns one per connect attempt and
// receives the result over a channel) — this is the idiomatic Go stand-in
// for the original's asynchronous connect-callback chain; "suspension at
// I/O" becomes "this goroutine blocks, the event-loop goroutine does not".
package conn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/ashttp/ashttp/pkg/errors"
	"github.com/ashttp/ashttp/pkg/timing"
	"github.com/ashttp/ashttp/pkg/tlsconfig"
)

// Scheme selects the transport flavor a Connection uses.
type Scheme int

const (
	Plain Scheme = iota
	TLS
)

// DefaultPort returns the conventional port for the scheme ("http"/"https").
func (s Scheme) DefaultPort() int {
	if s == TLS {
		return 443
	}
	return 80
}

// State is the Connection's lifecycle state.
type State int

const (
	Closed State = iota
	Connecting
	Handshaking
	Open
	Shutdown
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Connecting:
		return "connecting"
	case Handshaking:
		return "handshaking"
	case Open:
		return "open"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Options configures how a Connection dials and, for TLS, verifies its peer.
type Options struct {
	Scheme Scheme
	// Host is used for SNI and RFC 2818 hostname verification; it is the
	// normalized (IDNA ASCII) form of the client's host.
	Host string
	// DialTimeout bounds a single TCP connect attempt to one endpoint.
	DialTimeout time.Duration
	// TLSProfile selects the min/max version and cipher suite list applied
	// when Scheme == TLS. The zero value is tlsconfig.ProfileSecure.
	TLSProfile tlsconfig.VersionProfile
}

// Connection owns one transport endpoint to a host. It is not safe for
// concurrent Connect/Read/Write calls — the owning Client event loop
// serializes those — but Close may be called concurrently with a Read in
// progress (that is how the idle timer tears the connection down).
type Connection struct {
	opts        Options
	idleTimeout time.Duration

	mu    sync.Mutex
	state State
	raw   net.Conn

	idleTimer *time.Timer
	idleFired chan struct{}
}

// New creates a Connection in the Closed state.
func New(opts Options, idleTimeout time.Duration) *Connection {
	return &Connection{
		opts:        opts,
		idleTimeout: idleTimeout,
		state:       Closed,
		idleFired:   make(chan struct{}, 1),
	}
}

// State returns the Connection's current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IdleFired delivers a value once each time the idle timer shuts the
// connection down. The Client forwards each value to its event loop, which
// then clears its queue with a Timeout error.
func (c *Connection) IdleFired() <-chan struct{} {
	return c.idleFired
}

// Connect dials addrs in order until one succeeds, performing a TLS
// handshake afterward if Scheme == TLS. If the Connection is already Open
// it returns nil immediately (step 1 of the Connection contract). It
// blocks for the duration of the dial/handshake and should be run from a
// dedicated goroutine. timer may be nil; when given, Connect brackets the
// TCP dial and (for TLS) the handshake with it, so the two phases are
// measured separately rather than attributed entirely to TCP.
func (c *Connection) Connect(ctx context.Context, addrs []netip.Addr, port int, timer *timing.Timer) error {
	c.mu.Lock()
	if c.state == Open {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.mu.Unlock()

	if len(addrs) == 0 {
		return errors.Transportf("connect", c.opts.Host, port, fmt.Errorf("no resolved endpoints"))
	}

	if timer != nil {
		timer.StartTCP()
	}
	var lastErr error
	var raw net.Conn
	dialer := net.Dialer{Timeout: c.opts.DialTimeout}
	for _, addr := range addrs {
		dialCtx := ctx
		var cancel context.CancelFunc
		if c.opts.DialTimeout > 0 {
			dialCtx, cancel = context.WithTimeout(ctx, c.opts.DialTimeout)
		}
		conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(addr.String(), strconv.Itoa(port)))
		if cancel != nil {
			cancel()
		}
		if err == nil {
			raw = conn
			break
		}
		lastErr = err
	}
	if timer != nil {
		timer.EndTCP()
	}
	if raw == nil {
		c.setState(Closed)
		return errors.Transportf("dial", c.opts.Host, port, lastErr)
	}

	if c.opts.Scheme == TLS {
		c.setState(Handshaking)
		if timer != nil {
			timer.StartTLS()
		}
		tlsConn, err := c.handshake(ctx, raw)
		if timer != nil {
			timer.EndTLS()
		}
		if err != nil {
			raw.Close()
			c.setState(Closed)
			return errors.Transportf("tls handshake", c.opts.Host, port, err)
		}
		raw = tlsConn
	}

	c.mu.Lock()
	c.raw = raw
	c.state = Open
	c.mu.Unlock()

	c.StartIdleTimer()
	return nil
}

func (c *Connection) handshake(ctx context.Context, raw net.Conn) (net.Conn, error) {
	profile := c.opts.TLSProfile
	if profile.Min == 0 {
		profile = tlsconfig.ProfileSecure
	}
	cfg := &tls.Config{
		ServerName: c.opts.Host,
		MinVersion: profile.Min,
		MaxVersion: profile.Max,
	}
	tlsconfig.ApplyCipherSuites(cfg, profile.Min)

	tlsConn := tls.Client(raw, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Read reads from the underlying transport. Valid only while Open.
func (c *Connection) Read(p []byte) (int, error) {
	c.mu.Lock()
	raw := c.raw
	state := c.state
	c.mu.Unlock()
	if state != Open || raw == nil {
		return 0, errors.Transportf("read", c.opts.Host, 0, fmt.Errorf("connection not open (state=%s)", state))
	}
	return raw.Read(p)
}

// Write writes to the underlying transport. Valid only while Open.
func (c *Connection) Write(p []byte) (int, error) {
	c.mu.Lock()
	raw := c.raw
	state := c.state
	c.mu.Unlock()
	if state != Open || raw == nil {
		return 0, errors.Transportf("write", c.opts.Host, 0, fmt.Errorf("connection not open (state=%s)", state))
	}
	return raw.Write(p)
}

// StartIdleTimer arms the idle timer. Per the Connection's invariant, it
// should only be called while the Connection is Open and no request is
// actively reading.
func (c *Connection) StartIdleTimer() {
	if c.idleTimeout <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleTimer = time.AfterFunc(c.idleTimeout, c.onIdleFired)
}

// StopIdleTimer cancels a pending idle timer, returning true iff a timer
// was armed and this call beat it to firing.
func (c *Connection) StopIdleTimer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idleTimer == nil {
		return false
	}
	stopped := c.idleTimer.Stop()
	c.idleTimer = nil
	return stopped
}

func (c *Connection) onIdleFired() {
	c.shutdown()
	select {
	case c.idleFired <- struct{}{}:
	default:
	}
}

// shutdown performs the full-duplex close the idle timer (or explicit
// Close) triggers: pending reads/writes subsequently fail.
func (c *Connection) shutdown() {
	c.mu.Lock()
	raw := c.raw
	c.raw = nil
	c.state = Shutdown
	c.mu.Unlock()
	if raw != nil {
		raw.Close()
	}
	c.setState(Closed)
}

// Close tears the Connection down unconditionally; safe to call multiple
// times and from any goroutine.
func (c *Connection) Close() error {
	c.StopIdleTimer()
	c.shutdown()
	return nil
}
