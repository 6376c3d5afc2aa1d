// Package uartio declares the byte sink/source contract spec.md treats as
// "the physical UART peripheral driver" collaborator, named Port here.
// internal/platform wires a concrete Port per build target; internal/agent
// only ever sees this interface.
package uartio

import "context"

// Port is a byte-oriented, full-duplex link. Reads are interrupt-driven on
// real hardware; RecvSomeContext is how a reader goroutine waits for bytes
// without busy-polling.
type Port interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Buffered() int
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}
