package errors

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestErrorFormat(t *testing.T) {
	e := Transportf("dial", "example.com", 443, net.ErrClosed)
	want := "[transport] dial example.com:443: " + net.ErrClosed.Error() + ": " + net.ErrClosed.Error()
	if got := e.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if e.Kind != Transport {
		t.Fatalf("Kind = %v, want Transport", e.Kind)
	}
}

func TestIsSentinelByKind(t *testing.T) {
	e := Timeoutf("read", 10*time.Second)
	if !errors.Is(e, New(Timeout, "", "")) {
		t.Fatalf("expected errors.Is to match on Kind")
	}
	if errors.Is(e, New(Cancelled, "", "")) {
		t.Fatalf("did not expect Timeout to match Cancelled sentinel")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(Transport, "read", cause)
	if !errors.Is(e, cause) {
		t.Fatalf("expected Unwrap chain to reach cause")
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(Timeoutf("dial", time.Second)) {
		t.Fatalf("expected Timeout error to report IsTimeout")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded to report IsTimeout")
	}
	if IsTimeout(Cancelledf("dial")) {
		t.Fatalf("did not expect Cancelled error to report IsTimeout")
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(Cancelledf("schedule")) {
		t.Fatalf("expected Cancelled error to report IsCancelled")
	}
	if !IsCancelled(context.Canceled) {
		t.Fatalf("expected context.Canceled to report IsCancelled")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(HeaderParsef("parse", "missing colon")) != HeaderParse {
		t.Fatalf("expected KindOf to return HeaderParse")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("expected KindOf of a plain error to be empty")
	}
}
