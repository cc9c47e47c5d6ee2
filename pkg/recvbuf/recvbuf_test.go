package recvbuf

import (
	"testing"

	aerrors "github.com/ashttp/ashttp/pkg/errors"
)

func TestWriteWithinLimit(t *testing.T) {
	b := New(16, "test body")
	n, err := b.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}
	if string(b.Bytes()) != "hello" {
		t.Fatalf("Bytes() = %q", b.Bytes())
	}
	if b.Remaining() != 11 {
		t.Fatalf("Remaining() = %d, want 11", b.Remaining())
	}
}

func TestWriteOverLimit(t *testing.T) {
	b := New(4, "test body")
	_, err := b.Write([]byte("hello"))
	if aerrors.KindOf(err) != aerrors.FileTooLarge {
		t.Fatalf("expected FileTooLarge, got %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("expected buffer untouched after rejected write, got len %d", b.Len())
	}
}

func TestResetClearsLength(t *testing.T) {
	b := New(16, "test body")
	b.Write([]byte("abc"))
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected Len() == 0 after Reset, got %d", b.Len())
	}
	if b.Remaining() != 16 {
		t.Fatalf("Remaining() = %d, want 16", b.Remaining())
	}
}
