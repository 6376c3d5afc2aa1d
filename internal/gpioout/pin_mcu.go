//go:build tinygo

package gpioout

import "machine"

// MCUPin wraps a machine.Pin already configured as output, the same wrapping
// shape as the teacher's platform.rp2Pin.
type MCUPin struct {
	p machine.Pin
}

// NewMCUPin configures n as a digital output and returns a Pin.
func NewMCUPin(n machine.Pin) *MCUPin {
	n.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &MCUPin{p: n}
}

func (m *MCUPin) Toggle() {
	if m.p.Get() {
		m.p.Low()
	} else {
		m.p.High()
	}
}
