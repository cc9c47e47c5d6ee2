// Package header implements the parsed HTTP/1.1 response header block: a
// byte range over the raw header bytes plus a memoized, case-insensitive
// field lookup. Header is pure data — it performs no I/O and never mutates
// the buffer it was constructed from.
package header

import (
	"fmt"

	"github.com/ashttp/ashttp/pkg/errors"
)

// Range is a half-open byte range [Start, End) into a Header's raw bytes.
type Range struct {
	Start, End int
}

type cacheEntry struct {
	rng   Range
	found bool
}

// Header is the header block between the end of the status line and the
// terminating blank line, together with a field-name -> byte-range cache
// built lazily on first lookup.
type Header struct {
	raw   []byte
	cache map[string]cacheEntry
}

// New wraps raw (the header block: every field line including its own
// CRLF, without the terminating blank line) as a Header. raw is never copied or resized; callers must not mutate it after
// passing it to New.
func New(raw []byte) *Header {
	return &Header{raw: raw, cache: make(map[string]cacheEntry)}
}

// Raw returns the full header block bytes.
func (h *Header) Raw() []byte {
	return h.raw
}

// Get looks up key case-insensitively, returning its value bytes and true
// if present. The returned slice aliases Header's raw buffer and must not
// be retained past the Header's lifetime if the caller mutates raw
// elsewhere (it never does, in this package). A first lookup of key scans
// the raw block; the result — present or absent — is cached for the
// Header's lifetime, so repeated lookups of the same key are O(1).
func (h *Header) Get(key string) ([]byte, bool, error) {
	lk := toLowerASCII(key)
	if e, ok := h.cache[lk]; ok {
		if !e.found {
			return nil, false, nil
		}
		return h.raw[e.rng.Start:e.rng.End], true, nil
	}

	rng, found, err := h.scan(lk)
	if err != nil {
		return nil, false, err
	}
	h.cache[lk] = cacheEntry{rng: rng, found: found}
	if !found {
		return nil, false, nil
	}
	return h.raw[rng.Start:rng.End], true, nil
}

// GetString is Get with the value converted to a string.
func (h *Header) GetString(key string) (string, bool, error) {
	v, ok, err := h.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(v), true, nil
}

// scan performs the linear search described by the header component's
// contract: find a header line whose field name matches lowerKey, skip the
// colon and any leading spaces, and take the value up to the next CR. A
// match is only considered at the start of a line (position 0, or
// immediately after a CRLF) so that one field name can never be mistaken
// for a substring of another field's value or a longer field name that
// happens to share a prefix.
func (h *Header) scan(lowerKey string) (Range, bool, error) {
	raw := h.raw
	n := len(raw)
	klen := len(lowerKey)

	for i := 0; i+klen < n; i++ {
		atLineStart := i == 0 || (i >= 2 && raw[i-2] == '\r' && raw[i-1] == '\n')
		if !atLineStart {
			continue
		}
		if !equalFoldASCII(raw[i:i+klen], lowerKey) {
			continue
		}
		if raw[i+klen] != ':' {
			continue
		}

		pos := i + klen + 1
		for pos < n && raw[pos] == ' ' {
			pos++
		}

		for j := pos; j < n; j++ {
			if raw[j] == '\r' {
				if j+1 >= n || raw[j+1] != '\n' {
					return Range{}, false, errors.HeaderParsef("header.get",
						fmt.Sprintf("field %q: CR not followed by LF", lowerKey))
				}
				return Range{Start: pos, End: j}, true, nil
			}
		}
		return Range{}, false, errors.HeaderParsef("header.get",
			fmt.Sprintf("field %q: value runs off end of header block", lowerKey))
	}
	return Range{}, false, nil
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func equalFoldASCII(b []byte, lower string) bool {
	if len(b) != len(lower) {
		return false
	}
	for i := range b {
		c := b[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}
