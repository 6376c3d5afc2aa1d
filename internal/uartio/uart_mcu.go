//go:build tinygo

package uartio

import (
	"context"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// MCUPort adapts a tinygo-uartx *uartx.UART to Port, the same wrapping shape
// as the teacher's platform.rp2UART.
type MCUPort struct {
	u *uartx.UART
}

// WrapUART configures u at 115200-8-N-1 (spec.md §6) and returns a Port.
func WrapUART(u *uartx.UART) (*MCUPort, error) {
	if err := u.Configure(uartx.UARTConfig{BaudRate: 115200}); err != nil {
		return nil, err
	}
	return &MCUPort{u: u}, nil
}

func (m *MCUPort) Write(p []byte) (int, error) { return m.u.Write(p) }
func (m *MCUPort) Read(p []byte) (int, error)  { return m.u.Read(p) }
func (m *MCUPort) Buffered() int               { return m.u.Buffered() }
func (m *MCUPort) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	return m.u.RecvSomeContext(ctx, p)
}
