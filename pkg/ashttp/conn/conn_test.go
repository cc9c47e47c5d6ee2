package conn

import (
	"bufio"
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/ashttp/ashttp/pkg/timing"
)

func listen(t *testing.T) (net.Listener, netip.Addr, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addrPort := ln.Addr().(*net.TCPAddr)
	return ln, netip.MustParseAddr(addrPort.IP.String()), addrPort.Port
}

func TestConnectToPlainEndpointSucceeds(t *testing.T) {
	ln, addr, port := listen(t)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		line, _ := bufio.NewReader(c).ReadString('\n')
		_ = line
	}()

	c := New(Options{Scheme: Plain, Host: "127.0.0.1", DialTimeout: time.Second}, 0)
	if err := c.Connect(context.Background(), []netip.Addr{addr}, port, nil); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if c.State() != Open {
		t.Fatalf("State() = %v, want Open", c.State())
	}
	c.Write([]byte("x\n"))
	c.Close()
	<-done
}

func TestConnectFailsWithNoListener(t *testing.T) {
	ln, addr, port := listen(t)
	ln.Close() // nobody listening now

	c := New(Options{Scheme: Plain, Host: "127.0.0.1", DialTimeout: 200 * time.Millisecond}, 0)
	err := c.Connect(context.Background(), []netip.Addr{addr}, port, nil)
	if err == nil {
		t.Fatalf("expected Connect to fail against closed listener")
	}
	if c.State() != Closed {
		t.Fatalf("State() = %v, want Closed after failed connect", c.State())
	}
}

func TestIdleTimerShutsDownConnection(t *testing.T) {
	ln, addr, port := listen(t)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 1)
		c.Read(buf) // block until peer closes
	}()

	c := New(Options{Scheme: Plain, Host: "127.0.0.1", DialTimeout: time.Second}, 20*time.Millisecond)
	if err := c.Connect(context.Background(), []netip.Addr{addr}, port, nil); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case <-c.IdleFired():
	case <-time.After(time.Second):
		t.Fatalf("idle timer did not fire")
	}
	if c.State() != Closed {
		t.Fatalf("State() = %v, want Closed after idle fire", c.State())
	}
}

func TestConnectRecordsTCPTimingSeparatelyFromTLS(t *testing.T) {
	ln, addr, port := listen(t)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 1)
		c.Read(buf)
	}()

	c := New(Options{Scheme: Plain, Host: "127.0.0.1", DialTimeout: time.Second}, 0)
	tm := timing.NewTimer()
	if err := c.Connect(context.Background(), []netip.Addr{addr}, port, tm); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	m := tm.Metrics()
	if m.TCPConnect <= 0 {
		t.Fatalf("expected TCPConnect > 0, got %v", m.TCPConnect)
	}
	if m.TLSHandshake != 0 {
		t.Fatalf("expected TLSHandshake == 0 for a plain connection, got %v", m.TLSHandshake)
	}
	c.Close()
}

func TestStopIdleTimerReturnsTrueWhenBeatenToFiring(t *testing.T) {
	ln, addr, port := listen(t)
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err == nil {
			defer c.Close()
			buf := make([]byte, 1)
			c.Read(buf)
		}
	}()

	c := New(Options{Scheme: Plain, Host: "127.0.0.1", DialTimeout: time.Second}, time.Hour)
	if err := c.Connect(context.Background(), []netip.Addr{addr}, port, nil); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !c.StopIdleTimer() {
		t.Fatalf("expected StopIdleTimer to report true for an armed, unfired timer")
	}
	c.Close()
}
