package client

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/ashttp/ashttp/pkg/ashttp/header"
	"github.com/ashttp/ashttp/pkg/errors"
	"github.com/ashttp/ashttp/pkg/recvbuf"
)

// bodyMode identifies which of the three HTTP/1.1 body-framing strategies
// applies to a response, decided from its header fields.
type bodyMode int

const (
	bodyChunked bodyMode = iota
	bodyFixed
	bodyUntilClose
)

// Request is a single GET issued against a Client's host. It is built with
// the fluent On* methods, then handed to Client.Schedule (or Request.Schedule)
// to enter the host's FIFO queue.
//
// The Client holds only a weak.Pointer to a scheduled Request: if the
// caller drops its own reference before the Request reaches the front of
// the queue, the Request is silently skipped rather than kept alive by the
// queue itself.
type Request struct {
	client   *Client
	resource string
	timeout  time.Duration

	onHeaderCB    func(error, *header.Header)
	onBodyChunkCB func(error, io.Reader, int)
	onTimeoutCB   func()
	onCompleteCB  func(error)

	mu       sync.Mutex
	finished bool
	timedOut bool
	timer    *time.Timer
}

func newRequest(cl *Client, resource string) *Request {
	return &Request{
		client:   cl,
		resource: resource,
		timeout:  DefaultRequestTimeout,
	}
}

// OnHeader registers the callback fired once the status line and header
// block have been parsed.
func (r *Request) OnHeader(cb func(err error, h *header.Header)) *Request {
	r.onHeaderCB = cb
	return r
}

// OnBodyChunk registers the callback fired for each piece of body data,
// and once more with a nil/zero-length chunk to mark the end of the body.
func (r *Request) OnBodyChunk(cb func(err error, chunk io.Reader, n int)) *Request {
	r.onBodyChunkCB = cb
	return r
}

// OnTimeout registers the callback fired if the request's overall timeout
// elapses before it completes.
func (r *Request) OnTimeout(cb func()) *Request {
	r.onTimeoutCB = cb
	return r
}

// OnComplete registers the callback fired exactly once when the request
// reaches a terminal state, successful or not.
func (r *Request) OnComplete(cb func(err error)) *Request {
	r.onCompleteCB = cb
	return r
}

// Timeout overrides the default per-request timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Schedule enters the request into its client's FIFO queue.
func (r *Request) Schedule() {
	r.client.Schedule(r)
}

// start is called by the Client event loop once this request reaches the
// front of the queue and the connection is open. It arms the timeout timer
// and hands the actual write/read work to its own goroutine so the event
// loop itself never blocks on I/O.
func (r *Request) start() {
	if r.timeout > 0 {
		r.timer = time.AfterFunc(r.timeout, r.onTimerFired)
	}
	go r.run()
}

func (r *Request) run() {
	if err := r.validate(); err != nil {
		r.completeWithErr(err)
		return
	}

	line := "GET " + r.resource + " HTTP/1.1\r\nHost: " + r.client.host + "\r\n\r\n"
	if _, err := r.client.connection.Write([]byte(line)); err != nil {
		r.completeWithErr(errors.Wrap(errors.Transport, "write request", err))
		return
	}

	br := bufio.NewReaderSize(r.client.connection, 4096)

	h, mode, length, err := r.readHeader(br)
	if err != nil {
		r.completeWithErr(err)
		return
	}
	if r.onHeaderCB != nil {
		r.onHeaderCB(nil, h)
	}

	switch mode {
	case bodyChunked:
		err = r.readChunkedBody(br)
	case bodyFixed:
		err = r.readFixedBody(br, length)
	default:
		err = r.readUntilCloseBody(br)
	}
	if err != nil {
		r.completeWithErr(err)
		return
	}

	r.finish(nil)
}

func (r *Request) validate() error {
	if !strings.HasPrefix(r.resource, "/") {
		return errors.HeaderParsef("request target", "resource must start with '/': "+r.resource)
	}
	if !httpguts.ValidHeaderFieldValue(r.client.host) {
		return errors.HeaderParsef("request target", "invalid host value: "+r.client.host)
	}
	return nil
}

// completeWithErr finishes the request with err, unless the request's own
// timer already claimed completion (timedOut), in which case the timer
// goroutine is responsible and this goroutine's error is discarded — it is
// simply the natural consequence of the timer having closed the connection
// out from under this read/write.
func (r *Request) completeWithErr(err error) {
	r.mu.Lock()
	timedOut := r.timedOut
	r.mu.Unlock()
	if timedOut {
		return
	}
	r.finish(err)
}

func (r *Request) onTimerFired() {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.timedOut = true
	r.mu.Unlock()

	r.client.connection.Close()
	if r.onTimeoutCB != nil {
		r.onTimeoutCB()
	}
	r.finish(errors.Timeoutf("request", r.timeout))
}

// finish is the normal completion path: it notifies the owning Client so
// the queue can advance. finishExternal is used instead when the Client
// itself is clearing its queue.
func (r *Request) finish(err error) {
	if !r.complete(err) {
		return
	}
	r.client.requestCompleted(err)
}

// finishExternal completes the request without notifying the Client —
// used only by Client.clearQueue, which is already the one driving the
// queue forward and would otherwise reenter itself.
func (r *Request) finishExternal(err error) {
	r.complete(err)
}

// complete marks the request finished exactly once, stopping its timer and
// firing onComplete. It reports whether this call was the one that
// actually transitioned the request to finished.
func (r *Request) complete(err error) bool {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return false
	}
	r.finished = true
	timer := r.timer
	r.timer = nil
	cb := r.onCompleteCB
	r.onCompleteCB = nil
	r.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if cb != nil {
		cb(err)
	}
	return true
}

// readHeader reads the status line and header block, and determines how
// the body that follows is framed.
func (r *Request) readHeader(br *bufio.Reader) (*header.Header, bodyMode, int64, error) {
	statusLine, err := br.ReadString('\n')
	if err != nil {
		return nil, 0, 0, errors.Wrap(errors.Transport, "read status line", err)
	}
	if !strings.HasSuffix(statusLine, "\r\n") {
		return nil, 0, 0, errors.HeaderParsef("status line", "missing terminating CRLF")
	}

	raw := recvbuf.New(MaxRecvBuf, "header")
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, 0, 0, errors.Wrap(errors.Transport, "read header", err)
		}
		if !strings.HasSuffix(line, "\r\n") {
			return nil, 0, 0, errors.HeaderParsef("header", "missing terminating CRLF")
		}
		if line == "\r\n" {
			break
		}
		if _, err := raw.Write([]byte(line)); err != nil {
			return nil, 0, 0, err
		}
	}

	h := header.New(raw.Bytes())

	te, hasTE, err := h.GetString("transfer-encoding")
	if err != nil {
		return nil, 0, 0, err
	}
	cl, hasCL, err := h.GetString("content-length")
	if err != nil {
		return nil, 0, 0, err
	}

	if hasTE {
		if !strings.EqualFold(strings.TrimSpace(te), "chunked") {
			return nil, 0, 0, errors.HeaderParsef("transfer-encoding", "unsupported value: "+te)
		}
		if hasCL {
			return nil, 0, 0, errors.HeaderParsef("header", "content-length and transfer-encoding both present")
		}
		return h, bodyChunked, 0, nil
	}

	if hasCL {
		cl = strings.TrimSpace(cl)
		if len(cl) == 0 || len(cl) > 18 {
			return nil, 0, 0, errors.HeaderParsef("content-length", "invalid value: "+cl)
		}
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, 0, 0, errors.HeaderParsef("content-length", "invalid value: "+cl)
		}
		if n > MaxRecvBuf {
			return nil, 0, 0, errors.FileTooLargef("content-length", MaxRecvBuf)
		}
		return h, bodyFixed, n, nil
	}

	return h, bodyUntilClose, 0, nil
}

func (r *Request) emitChunk(err error, chunk io.Reader, n int) {
	if r.onBodyChunkCB != nil {
		r.onBodyChunkCB(err, chunk, n)
	}
}

func (r *Request) readChunkedBody(br *bufio.Reader) error {
	var total int64
	for {
		sizeLine, err := br.ReadString('\n')
		if err != nil {
			return errors.Wrap(errors.Transport, "read chunk size", err)
		}
		if !strings.HasSuffix(sizeLine, "\r\n") {
			return errors.HeaderParsef("chunk size", "missing terminating CRLF")
		}
		sizeField := strings.TrimSuffix(sizeLine, "\r\n")
		if i := strings.IndexByte(sizeField, ';'); i >= 0 {
			sizeField = sizeField[:i]
		}
		size, err := strconv.ParseUint(sizeField, 16, 64)
		if err != nil {
			return errors.HeaderParsef("chunk size", "invalid hex size: "+sizeField)
		}

		if size == 0 {
			if err := readCRLF(br); err != nil {
				return err
			}
			r.emitChunk(nil, bytes.NewReader(nil), 0)
			return nil
		}

		total += int64(size)
		if total > MaxRecvBuf {
			return errors.FileTooLargef("chunked body", MaxRecvBuf)
		}

		buf := make([]byte, size)
		if _, err := io.ReadFull(br, buf); err != nil {
			return errors.Wrap(errors.Transport, "read chunk data", err)
		}
		if err := readCRLF(br); err != nil {
			return err
		}
		r.emitChunk(nil, bytes.NewReader(buf), int(size))

		if r.client.connection.StopIdleTimer() {
			r.client.connection.StartIdleTimer()
		}
	}
}

func (r *Request) readFixedBody(br *bufio.Reader, n int64) error {
	if n > 0 {
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return errors.Wrap(errors.Transport, "read body", err)
		}
		r.emitChunk(nil, bytes.NewReader(buf), int(n))
	}
	r.emitChunk(nil, bytes.NewReader(nil), 0)
	return nil
}

func (r *Request) readUntilCloseBody(br *bufio.Reader) error {
	var buf bytes.Buffer
	tmp := make([]byte, 4096)
	for {
		n, err := br.Read(tmp)
		if n > 0 {
			if int64(buf.Len()+n) > MaxRecvBuf {
				return errors.FileTooLargef("body", MaxRecvBuf)
			}
			buf.Write(tmp[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(errors.Transport, "read body", err)
		}
	}
	if buf.Len() > 0 {
		r.emitChunk(nil, bytes.NewReader(buf.Bytes()), buf.Len())
	}
	r.emitChunk(nil, bytes.NewReader(nil), 0)
	return nil
}

func readCRLF(br *bufio.Reader) error {
	line, err := br.ReadString('\n')
	if err != nil {
		return errors.Wrap(errors.Transport, "read chunk terminator", err)
	}
	if line != "\r\n" {
		return errors.HeaderParsef("chunk terminator", "expected CRLF, got "+strconv.Quote(line))
	}
	return nil
}
