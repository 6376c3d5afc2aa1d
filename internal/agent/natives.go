package agent

import (
	"time"

	"wasmnode-go/internal/sandbox"
)

// nativeSleep paces gpio_toggle, per spec.md §4.5 ("Sleep is deliberate: it
// paces demo modules and provides a natural cancellation-polling rhythm").
const nativeSleep = 1000 * time.Millisecond

// natives builds the host-function bindings for one guest instance. They
// close over the Agent's Pin and stop_requested flag directly, rather than
// a native callback reading package-level globals (Design Notes §9).
func (a *Agent) natives() sandbox.Natives {
	return sandbox.Natives{
		GPIOToggle: func() {
			a.pin.Toggle()
			time.Sleep(nativeSleep)
		},
		ShouldStop: func() bool {
			return a.stopRequested.Load()
		},
	}
}
