// Package timing captures per-connection timing metrics (DNS, TCP, TLS)
// surfacing through Client's onConnect callback as an enrichment beyond
// the bare connect/disconnect signal.
package timing

import (
	"fmt"
	"time"
)

// Metrics captures the timing breakdown for a single connection attempt.
type Metrics struct {
	DNSLookup    time.Duration `json:"dns_lookup"`
	TCPConnect   time.Duration `json:"tcp_connect"`
	TLSHandshake time.Duration `json:"tls_handshake"`
	TotalTime    time.Duration `json:"total_time"`
}

// Timer accumulates start/end marks for one connection's phases.
type Timer struct {
	start time.Time

	dnsStart, dnsEnd time.Time
	tcpStart, tcpEnd time.Time
	tlsStart, tlsEnd time.Time
}

// NewTimer starts a new timing session.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) StartDNS() { t.dnsStart = time.Now() }
func (t *Timer) EndDNS()   { t.dnsEnd = time.Now() }

func (t *Timer) StartTCP() { t.tcpStart = time.Now() }
func (t *Timer) EndTCP()   { t.tcpEnd = time.Now() }

func (t *Timer) StartTLS() { t.tlsStart = time.Now() }
func (t *Timer) EndTLS()   { t.tlsEnd = time.Now() }

// Metrics returns the timing breakdown measured so far.
func (t *Timer) Metrics() Metrics {
	m := Metrics{TotalTime: time.Since(t.start)}
	if !t.dnsStart.IsZero() && !t.dnsEnd.IsZero() {
		m.DNSLookup = t.dnsEnd.Sub(t.dnsStart)
	}
	if !t.tcpStart.IsZero() && !t.tcpEnd.IsZero() {
		m.TCPConnect = t.tcpEnd.Sub(t.tcpStart)
	}
	if !t.tlsStart.IsZero() && !t.tlsEnd.IsZero() {
		m.TLSHandshake = t.tlsEnd.Sub(t.tlsStart)
	}
	return m
}

// ConnectionTime returns DNS + TCP + TLS time, i.e. time spent before the
// request could even be written.
func (m Metrics) ConnectionTime() time.Duration {
	return m.DNSLookup + m.TCPConnect + m.TLSHandshake
}

func (m Metrics) String() string {
	return fmt.Sprintf("dns=%v tcp=%v tls=%v total=%v",
		m.DNSLookup, m.TCPConnect, m.TLSHandshake, m.TotalTime)
}
