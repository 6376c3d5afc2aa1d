// Package platform wires the per-build concrete Port/Pin/Engine into an
// Agent, mirroring the teacher's factories_host.go/factories_rp2xxx.go
// split: everything above this package only ever sees the opaque
// uartio.Port, gpioout.Pin, and sandbox.Engine contracts.
package platform

import (
	"wasmnode-go/internal/agent"
	"wasmnode-go/internal/uartio"
)

// Identity re-exports agent.Identity so cmd/ callers need only import this
// package.
type Identity = agent.Identity

// GatewayPort is the gateway-facing half of a loopback pair, returned by
// NewHostAgentWithLoopback for cmd/gateway-sim.
type GatewayPort = uartio.Port
