//go:build !tinygo

package uartio

import (
	"context"
	"time"

	serial "github.com/daedaluz/goserial"
)

// SerialPort adapts github.com/daedaluz/goserial's *serial.Port to Port, for
// running against a real device (e.g. /dev/ttyUSB0) or a loopback pty opened
// with OpenPTY, instead of the in-process Loopback used by tests.
type SerialPort struct {
	p *serial.Port
}

// OpenSerial opens name at baud 115200, 8-N-1 — the wire format spec.md §6
// specifies for this protocol.
func OpenSerial(name string) (*SerialPort, error) {
	p, err := serial.Open(name, serial.NewOptions())
	if err != nil {
		return nil, err
	}
	if err := configure(p); err != nil {
		_ = p.Close()
		return nil, err
	}
	return &SerialPort{p: p}, nil
}

// configure puts p into raw mode at 115200-8-N-1, mirroring what the
// original gateway-facing UART driver sets up once at boot.
func configure(p *serial.Port) error {
	attrs, err := p.GetAttr()
	if err != nil {
		return err
	}
	attrs.MakeRaw()
	attrs.SetSpeed(serial.B115200)
	attrs.Cflag |= serial.CREAD | serial.CLOCAL
	return p.SetAttr(serial.TCSANOW, attrs)
}

// WrapSerial adapts an already-open *serial.Port, used by
// platform.NewHostAgentWithPTY where the pty pair is opened directly via
// serial.OpenPTY.
func WrapSerial(p *serial.Port) *SerialPort { return &SerialPort{p: p} }

func (s *SerialPort) Write(p []byte) (int, error) { return s.p.Write(p) }
func (s *SerialPort) Read(p []byte) (int, error)  { return s.p.Read(p) }
func (s *SerialPort) Buffered() int                { return 0 }

// RecvSomeContext blocks (bounded by a short read timeout, retried until ctx
// is done) until at least one byte is available. goserial's *Port has no
// native context-aware read, so this polls SetReadTimeout in short slices —
// the same accommodation the teacher makes in factories_host.go's simUART
// for a context-cancellable read on a backend that predates context.Context.
func (s *SerialPort) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	s.p.SetReadTimeout(50 * time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		n, err := s.p.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
	}
}
