// Package client implements the Client and Request components: a per-host
// façade over one Connection that resolves DNS once, reconnects lazily,
// and serializes a FIFO queue of Requests onto that connection one at a
// time — and the Request response reader bound to it.
//
// Client and Request share a package, mirroring the teacher's original
// (ashttp::client::Client and ashttp::client::Request lived in the same
// C++ namespace) because the two are mutually referential: a Request
// reports completion back to its Client, and a Client starts the Request
// at the head of its queue. Keeping them in one Go package avoids an
// import cycle without resorting to an interface neither side needs.
//
// All mutable Client state is owned by a single goroutine (run) that
// drains a channel of events; timers and blocked network I/O happen on
// their own goroutines and report back over that same channel. This is
// the Go stand-in for "single-threaded cooperative event loop": the event
// loop goroutine never blocks on I/O, and nothing touches queue/endpoint
// state except from inside it.
package client

import (
	"context"
	"net"
	"net/netip"
	"time"
	"weak"

	"github.com/ashttp/ashttp/pkg/ashttp/conn"
	"github.com/ashttp/ashttp/pkg/errors"
	"github.com/ashttp/ashttp/pkg/timing"
	"github.com/ashttp/ashttp/pkg/tlsconfig"
)

// ConnectCallback is invoked once per connect attempt (successful or
// failed) for the lifetime of the Client.
type ConnectCallback func(err error, metrics timing.Metrics)

// Options configures a Client's transport and timeouts.
type Options struct {
	Scheme conn.Scheme
	// Port overrides the scheme's default (80/443) when non-zero.
	Port int

	IdleTimeout    time.Duration
	ResolveTimeout time.Duration
	DialTimeout    time.Duration

	TLSProfile tlsconfig.VersionProfile

	// Resolver overrides net.DefaultResolver; nil uses the default.
	Resolver *net.Resolver
}

// Client is the per-host façade: one Connection, a resolved-endpoint
// cache, and a FIFO queue of Requests of which at most one is active.
type Client struct {
	host string
	opts Options

	connection *conn.Connection

	events chan event
	done   chan struct{}

	// The following fields are only ever touched inside run().
	endpoints   []netip.Addr
	resolved    bool
	queue       []weak.Pointer[Request]
	active      bool
	onConnectCB ConnectCallback
}

// New creates a Client for host (no scheme, no path) and starts its event
// loop. The Connection is created but left Closed until the first
// Schedule or explicit Connect.
func New(host string, opts Options) *Client {
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.ResolveTimeout == 0 {
		opts.ResolveTimeout = DefaultResolveTimeout
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.TLSProfile.Min == 0 {
		opts.TLSProfile = tlsconfig.ProfileSecure
	}

	c := &Client{
		host:   host,
		opts:   opts,
		events: make(chan event, 16),
		done:   make(chan struct{}),
	}
	c.connection = conn.New(conn.Options{
		Scheme:      opts.Scheme,
		Host:        normalizeHost(host),
		DialTimeout: opts.DialTimeout,
		TLSProfile:  opts.TLSProfile,
	}, opts.IdleTimeout)

	go c.forwardIdle()
	go c.run()
	return c
}

// Host returns the client's target host.
func (c *Client) Host() string {
	return c.host
}

// Get constructs a Request bound to this Client, but does not schedule it.
func (c *Client) Get(resource string) *Request {
	return newRequest(c, resource)
}

// OnConnect registers a callback fired once per connect attempt
// (successful or failed) for the Client's lifetime. Fluent.
func (c *Client) OnConnect(cb ConnectCallback) *Client {
	c.send(setOnConnectEvent{cb: cb})
	return c
}

// Schedule adds req to the tail of the FIFO queue. If no request is
// currently active, this begins resolving/connecting immediately.
func (c *Client) Schedule(req *Request) {
	c.send(scheduleEvent{wp: weak.Make(req)})
}

// RequestCount returns the number of requests still pending, including
// the active one.
func (c *Client) RequestCount() int {
	reply := make(chan int, 1)
	c.send(requestCountEvent{reply: reply})
	select {
	case n := <-reply:
		return n
	case <-c.done:
		return 0
	}
}

// Resolve exposes the resolve step for advanced callers. The result is
// cached and reused for the Client's lifetime.
func (c *Client) Resolve(cb func([]netip.Addr, error)) {
	c.send(resolveRequestEvent{cb: cb})
}

// Connect exposes the connect step (resolve + dial [+ handshake]) for
// advanced callers.
func (c *Client) Connect(cb func(error)) {
	c.send(connectRequestEvent{cb: cb})
}

// Close tears the Client down: clears the queue with Cancelled, closes
// the Connection, and stops the event loop. Safe to call once.
func (c *Client) Close() error {
	done := make(chan struct{})
	c.send(closeEvent{done: done})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	return nil
}

// send delivers e to the event loop, or silently drops it if the loop has
// already exited (Close was called). Requests whose worker goroutine races
// a Close rely on this to avoid blocking forever.
func (c *Client) send(e event) {
	select {
	case c.events <- e:
	case <-c.done:
	}
}

// requestCompleted is called by a Request's own finish path (never by
// Client.clearQueue, which uses finishExternal instead) to report that the
// active request reached a terminal state.
func (c *Client) requestCompleted(err error) {
	c.send(requestCompletedEvent{err: err})
}

func (c *Client) resolver() *net.Resolver {
	if c.opts.Resolver != nil {
		return c.opts.Resolver
	}
	return net.DefaultResolver
}

func (c *Client) forwardIdle() {
	for {
		select {
		case <-c.connection.IdleFired():
			c.send(idleFiredEvent{})
		case <-c.done:
			return
		}
	}
}

// run is the Client's single event-loop goroutine. Every case below is the
// only place its corresponding state is mutated.
func (c *Client) run() {
	defer close(c.done)
	for ev := range c.events {
		switch e := ev.(type) {
		case scheduleEvent:
			c.queue = append(c.queue, e.wp)
			if !c.active {
				c.active = true
				c.beginConnect(nil)
			}

		case connectRequestEvent:
			c.beginConnect(e.cb)

		case connectDoneEvent:
			if c.onConnectCB != nil {
				c.onConnectCB(e.err, e.metrics)
			}
			if e.userCB != nil {
				e.userCB(e.err)
			}
			if e.err != nil {
				c.active = false
				c.clearQueue(errors.Wrap(errors.Transport, "connect", e.err))
			} else {
				c.startFront()
			}

		case resolveRequestEvent:
			c.doResolve(e.cb)

		case resolveDoneEvent:
			if e.err == nil {
				c.endpoints = e.addrs
				c.resolved = true
			}
			if e.cb != nil {
				e.cb(e.addrs, e.err)
			}

		case requestCompletedEvent:
			if len(c.queue) > 0 {
				c.queue = c.queue[1:]
			}
			c.active = false
			if e.err == nil {
				c.startFront()
			} else {
				c.clearQueue(errors.Cancelledf("queue"))
			}

		case idleFiredEvent:
			c.active = false
			c.clearQueue(errors.Timeoutf("idle", c.opts.IdleTimeout))

		case setOnConnectEvent:
			c.onConnectCB = e.cb

		case requestCountEvent:
			e.reply <- len(c.queue)

		case closeEvent:
			c.clearQueue(errors.Cancelledf("client closed"))
			c.connection.Close()
			if e.done != nil {
				close(e.done)
			}
			return
		}
	}
}

// doResolve invokes cb with the cached endpoint list if already resolved,
// otherwise spawns a resolveWorker. Always called from the event loop.
func (c *Client) doResolve(cb func([]netip.Addr, error)) {
	if c.resolved {
		cb(c.endpoints, nil)
		return
	}
	go c.resolveWorker(cb)
}

func (c *Client) resolveWorker(cb func([]netip.Addr, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ResolveTimeout)
	defer cancel()

	host := normalizeHost(c.host)
	ipAddrs, err := c.resolver().LookupIPAddr(ctx, host)
	if err != nil {
		c.send(resolveDoneEvent{err: errors.Transportf("resolve", c.host, 0, err), cb: cb})
		return
	}

	addrs := make([]netip.Addr, 0, len(ipAddrs))
	for _, ip := range ipAddrs {
		if a, ok := netip.AddrFromSlice(ip.IP); ok {
			addrs = append(addrs, a.Unmap())
		}
	}
	if len(addrs) == 0 {
		c.send(resolveDoneEvent{err: errors.Transportf("resolve", c.host, 0, errNoAddresses{host}), cb: cb})
		return
	}
	c.send(resolveDoneEvent{addrs: addrs, cb: cb})
}

// beginConnect resolves (if needed) then connects, reporting the outcome
// so onConnectCB fires exactly once per attempt: a resolve failure is
// reported directly from the resolve callback, a dial/handshake outcome
// via a connectDoneEvent.
func (c *Client) beginConnect(userCB func(error)) {
	mt := timing.NewTimer()
	mt.StartDNS()
	c.doResolve(func(addrs []netip.Addr, err error) {
		mt.EndDNS()
		if err != nil {
			c.active = false
			if c.onConnectCB != nil {
				c.onConnectCB(err, mt.Metrics())
			}
			if userCB != nil {
				userCB(err)
			}
			c.clearQueue(errors.Wrap(errors.Transport, "resolve", err))
			return
		}
		go c.connectWorker(addrs, mt, userCB)
	})
}

func (c *Client) connectWorker(addrs []netip.Addr, mt *timing.Timer, userCB func(error)) {
	port := c.opts.Port
	if port == 0 {
		port = c.opts.Scheme.DefaultPort()
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.DialTimeout)
	defer cancel()

	err := c.connection.Connect(ctx, addrs, port, mt)

	c.send(connectDoneEvent{err: err, metrics: mt.Metrics(), userCB: userCB})
}

// startFront promotes the first live entry at the head of the queue to
// active, skipping (and dropping) any entries whose Request has already
// been garbage collected because the caller dropped its handle.
func (c *Client) startFront() {
	for len(c.queue) > 0 {
		req := c.queue[0].Value()
		if req == nil {
			c.queue = c.queue[1:]
			continue
		}
		c.active = true
		req.start()
		return
	}
	c.active = false
}

// clearQueue finishes every Request still in the queue with err and
// empties the queue. After a failed request the completed entry has
// already been popped; on idle fire or Close the head of the queue may be
// the active Request, which is finished here too — its own finish path
// then finds it already complete and does not call requestCompleted.
func (c *Client) clearQueue(err error) {
	pending := c.queue
	c.queue = nil
	for _, wp := range pending {
		if req := wp.Value(); req != nil {
			req.finishExternal(err)
		}
	}
}

type errNoAddresses struct{ host string }

func (e errNoAddresses) Error() string {
	return "no addresses returned for " + e.host
}
