package timing

import (
	"testing"
	"time"
)

func TestTimerMetrics(t *testing.T) {
	tm := NewTimer()
	tm.StartDNS()
	time.Sleep(time.Millisecond)
	tm.EndDNS()
	tm.StartTCP()
	time.Sleep(time.Millisecond)
	tm.EndTCP()

	m := tm.Metrics()
	if m.DNSLookup <= 0 {
		t.Fatalf("expected DNSLookup > 0, got %v", m.DNSLookup)
	}
	if m.TCPConnect <= 0 {
		t.Fatalf("expected TCPConnect > 0, got %v", m.TCPConnect)
	}
	if m.TLSHandshake != 0 {
		t.Fatalf("expected TLSHandshake == 0 for a plain connection, got %v", m.TLSHandshake)
	}
	if m.ConnectionTime() < m.DNSLookup+m.TCPConnect {
		t.Fatalf("ConnectionTime() should be at least DNS+TCP")
	}
}
