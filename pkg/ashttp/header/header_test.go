package header

import (
	aerrors "github.com/ashttp/ashttp/pkg/errors"
	"testing"
)

func TestGetFindsCaseInsensitiveField(t *testing.T) {
	h := New([]byte("Content-Length: 5\r\nServer: test\r\n"))

	v, ok, err := h.GetString("content-length")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != "5" {
		t.Fatalf("GetString(content-length) = %q, %v, want \"5\", true", v, ok)
	}

	v, ok, err = h.GetString("SERVER")
	if err != nil || !ok || v != "test" {
		t.Fatalf("GetString(SERVER) = %q, %v, %v", v, ok, err)
	}
}

func TestGetAbsentField(t *testing.T) {
	h := New([]byte("Content-Length: 5\r\n"))
	_, ok, err := h.GetString("transfer-encoding")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected transfer-encoding to be absent")
	}
}

func TestGetIsStableAcrossCalls(t *testing.T) {
	h := New([]byte("X-Id: abc\r\n"))
	v1, ok1, _ := h.GetString("x-id")
	v2, ok2, _ := h.GetString("x-id")
	if v1 != v2 || ok1 != ok2 {
		t.Fatalf("Get is not stable: (%q,%v) vs (%q,%v)", v1, ok1, v2, ok2)
	}
}

func TestGetSkipsLeadingSpaces(t *testing.T) {
	h := New([]byte("X-Id:    abc\r\n"))
	v, ok, err := h.GetString("x-id")
	if err != nil || !ok || v != "abc" {
		t.Fatalf("GetString = %q, %v, %v, want \"abc\", true, nil", v, ok, err)
	}
}

func TestGetMissingTerminatingCRIsHeaderParseError(t *testing.T) {
	h := New([]byte("X-Id: abc"))
	_, _, err := h.Get("x-id")
	if aerrors.KindOf(err) != aerrors.HeaderParse {
		t.Fatalf("expected HeaderParse error, got %v", err)
	}
}

func TestGetCRWithoutLFIsHeaderParseError(t *testing.T) {
	h := New([]byte("X-Id: abc\rJunk: 1\r\n"))
	_, _, err := h.Get("x-id")
	if aerrors.KindOf(err) != aerrors.HeaderParse {
		t.Fatalf("expected HeaderParse error for bare CR, got %v", err)
	}
}

func TestGetDoesNotMatchPrefixOfAnotherField(t *testing.T) {
	h := New([]byte("Content-Length-Extra: 99\r\n"))
	_, ok, err := h.Get("content-length")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("content-length should not match content-length-extra")
	}
}

func TestGetDoesNotMatchMidLine(t *testing.T) {
	h := New([]byte("X-Custom: content-length: 5\r\n"))
	_, ok, err := h.Get("content-length")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("content-length should only match at line start, not mid-value")
	}
}
