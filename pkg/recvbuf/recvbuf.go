// Package recvbuf implements the bounded, memory-only receive buffer a
// Request accumulates its response header block into.
//
// Unlike a general-purpose buffer that spills to disk once it outgrows a
// soft limit, a recvbuf.Buffer enforces a hard cap: once the cap would be
// exceeded, Write fails with a FileTooLarge error instead of growing. The
// cap is fixed at construction and the underlying slice is never resized
// past it.
package recvbuf

import (
	"bytes"

	"github.com/ashttp/ashttp/pkg/errors"
)

// Buffer accumulates bytes up to a fixed limit.
type Buffer struct {
	buf   bytes.Buffer
	limit int64
	op    string
}

// New creates a Buffer that rejects any write that would take it past
// limit bytes. op names the operation reported in the FileTooLarge error
// (typically "content-length body" or "chunked body").
func New(limit int64, op string) *Buffer {
	return &Buffer{limit: limit, op: op}
}

// Write appends p, failing with a FileTooLarge error if doing so would
// exceed the configured limit. It never partially writes: on failure the
// buffer is left exactly as it was.
func (b *Buffer) Write(p []byte) (int, error) {
	if int64(b.buf.Len()+len(p)) > b.limit {
		return 0, errors.FileTooLargef(b.op, b.limit)
	}
	return b.buf.Write(p)
}

// Bytes returns the accumulated bytes. The returned slice is only valid
// until the next Write or Reset.
func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Remaining returns how many more bytes can be written before hitting the
// limit.
func (b *Buffer) Remaining() int64 {
	return b.limit - int64(b.buf.Len())
}

// Reset discards all accumulated bytes, keeping the configured limit.
func (b *Buffer) Reset() {
	b.buf.Reset()
}
