// Package ashttp provides a low-level, asynchronous HTTP/1.1 GET client:
// one Client per host, a FIFO queue of in-flight Requests, and
// callback-driven delivery of the header block and each body chunk as
// they arrive off the wire.
package ashttp

import (
	"github.com/ashttp/ashttp/pkg/ashttp/client"
	"github.com/ashttp/ashttp/pkg/ashttp/conn"
	"github.com/ashttp/ashttp/pkg/ashttp/header"
	"github.com/ashttp/ashttp/pkg/errors"
	"github.com/ashttp/ashttp/pkg/timing"
)

// Version is the current version of the ashttp library.
const Version = "1.0.0"

// GetVersion returns the current version of the library.
func GetVersion() string {
	return Version
}

// Re-export key types for easier usage.
type (
	// Options controls how a Client resolves, dials, and (for TLS) verifies
	// its host.
	Options = client.Options

	// ConnectCallback is invoked once per connect attempt against a Client's
	// host.
	ConnectCallback = client.ConnectCallback

	// Client is a per-host façade over a single Connection and FIFO request
	// queue.
	Client = client.Client

	// Request is a single GET built with the fluent On* methods.
	Request = client.Request

	// Header is a parsed response header block (the status line is not
	// part of it).
	Header = header.Header

	// Metrics captures DNS/TCP/TLS timing for one connect attempt.
	Metrics = timing.Metrics

	// Error is the structured error type returned by ashttp operations.
	Error = errors.Error

	// Scheme selects plain TCP or TLS-over-TCP transport.
	Scheme = conn.Scheme
)

// Transport schemes.
const (
	Plain = conn.Plain
	TLS   = conn.TLS
)

// Error kinds.
const (
	KindCancelled    = errors.Cancelled
	KindTimeout      = errors.Timeout
	KindFileTooLarge = errors.FileTooLarge
	KindHeaderParse  = errors.HeaderParse
	KindTransport    = errors.Transport
)

// NewClient returns a Client for host with the given Options, starting its
// event loop immediately. The underlying Connection stays closed until the
// first Request is scheduled (or Connect is called explicitly).
func NewClient(host string, opts Options) *Client {
	return client.New(host, opts)
}

// DefaultOptions returns Options with ashttp's default timeouts applied for
// the given scheme.
func DefaultOptions(scheme Scheme) Options {
	return Options{
		Scheme:         scheme,
		IdleTimeout:    client.DefaultIdleTimeout,
		ResolveTimeout: client.DefaultResolveTimeout,
		DialTimeout:    client.DefaultDialTimeout,
	}
}

// IsTimeout reports whether err is a timeout — request, idle, or resolve.
func IsTimeout(err error) bool {
	return errors.IsTimeout(err)
}

// IsCancelled reports whether err is a cancellation — an explicit Close or
// a queue cleared by an earlier failure.
func IsCancelled(err error) bool {
	return errors.IsCancelled(err)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, or "" if
// err is nil or not one of ours.
func KindOf(err error) errors.Kind {
	return errors.KindOf(err)
}

// DefaultRequestTimeout is the per-request timeout applied when a Request
// does not override it with Timeout.
const DefaultRequestTimeout = client.DefaultRequestTimeout
