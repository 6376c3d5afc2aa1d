//go:build !tinygo

package uartio

import (
	"context"
	"sync"
)

// Loopback is an in-process Port with no hardware behind it: bytes written
// to one end of a pair arrive readable on the other. Built the same way the
// teacher's platform.simUART stands in for a real UART in host tests.
type Loopback struct {
	mu sync.Mutex
	rx []byte
	rd chan struct{}

	peer *Loopback
}

// NewLoopbackPair returns two Ports wired so writes to one are reads on the
// other, for exercising the whole COMM/RUNNER pipeline without a gateway.
func NewLoopbackPair() (agentSide, gatewaySide *Loopback) {
	a := &Loopback{rd: make(chan struct{}, 1)}
	g := &Loopback{rd: make(chan struct{}, 1)}
	a.peer = g
	g.peer = a
	return a, g
}

func (l *Loopback) Write(p []byte) (int, error) {
	l.peer.deliver(p)
	return len(p), nil
}

func (l *Loopback) deliver(p []byte) {
	l.mu.Lock()
	l.rx = append(l.rx, p...)
	if len(l.rd) == 0 {
		l.rd <- struct{}{}
	}
	l.mu.Unlock()
}

func (l *Loopback) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rx)
}

func (l *Loopback) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := copy(p, l.rx)
	l.rx = l.rx[n:]
	return n, nil
}

func (l *Loopback) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	if n := l.Buffered(); n > 0 {
		return l.Read(p)
	}
	select {
	case <-l.rd:
		return l.Read(p)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
