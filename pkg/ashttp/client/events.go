package client

import (
	"net/netip"
	"weak"

	"github.com/ashttp/ashttp/pkg/timing"
)

// event is the sum type the Client's single event-loop goroutine drains.
// Every piece of mutable Client state (endpoint cache, queue, active flag,
// onConnect callback) is touched only while handling one of these cases,
// which is what lets the loop go without a mutex: the goroutine itself is
// the lock.
type event interface{ isClientEvent() }

type scheduleEvent struct{ wp weak.Pointer[Request] }

func (scheduleEvent) isClientEvent() {}

type connectRequestEvent struct{ cb func(error) }

func (connectRequestEvent) isClientEvent() {}

type connectDoneEvent struct {
	err     error
	metrics timing.Metrics
	userCB  func(error)
}

func (connectDoneEvent) isClientEvent() {}

type resolveRequestEvent struct{ cb func([]netip.Addr, error) }

func (resolveRequestEvent) isClientEvent() {}

type resolveDoneEvent struct {
	addrs []netip.Addr
	err   error
	cb    func([]netip.Addr, error)
}

func (resolveDoneEvent) isClientEvent() {}

type requestCompletedEvent struct{ err error }

func (requestCompletedEvent) isClientEvent() {}

type idleFiredEvent struct{}

func (idleFiredEvent) isClientEvent() {}

type setOnConnectEvent struct{ cb ConnectCallback }

func (setOnConnectEvent) isClientEvent() {}

type requestCountEvent struct{ reply chan int }

func (requestCountEvent) isClientEvent() {}

type closeEvent struct{ done chan struct{} }

func (closeEvent) isClientEvent() {}
