//go:build !tinygo

package platform

import (
	"context"

	serial "github.com/daedaluz/goserial"

	"wasmnode-go/internal/agent"
	"wasmnode-go/internal/agentlog"
	"wasmnode-go/internal/gpioout"
	"wasmnode-go/internal/sandbox/wazeroengine"
	"wasmnode-go/internal/uartio"
)

// NewHostAgent builds an Agent against a real serial device, for cmd/agent's
// default (non-simulated) run mode.
func NewHostAgent(ctx context.Context, ident Identity, devicePath string) (*agent.Agent, error) {
	port, err := uartio.OpenSerial(devicePath)
	if err != nil {
		return nil, err
	}
	return agent.New(agent.Config{
		Identity: ident,
		Port:     port,
		Pin:      gpioout.NewFakePin(),
		Engine:   wazeroengine.New(ctx, agent.HeapBudget),
		Logger:   agentlog.New(nil),
	}), nil
}

// NewHostAgentWithLoopback builds an Agent wired to an in-process loopback
// pair, returning the Agent plus the gateway-facing half of the link. Used
// by cmd/gateway-sim when no real device path is given.
func NewHostAgentWithLoopback(ctx context.Context, ident Identity) (*agent.Agent, GatewayPort) {
	agentSide, gatewaySide := uartio.NewLoopbackPair()
	a := agent.New(agent.Config{
		Identity: ident,
		Port:     agentSide,
		Pin:      gpioout.NewFakePin(),
		Engine:   wazeroengine.New(ctx, agent.HeapBudget),
		Logger:   agentlog.New(nil),
	})
	return a, gatewaySide
}

// NewHostAgentWithPTY opens a pseudo-terminal pair via goserial and wires an
// Agent to the master side, handing the open slave side back for the
// caller to use as the gateway end of the link.
func NewHostAgentWithPTY(ctx context.Context, ident Identity) (*agent.Agent, *serial.Port, error) {
	master, slave, err := serial.OpenPTY(nil, nil)
	if err != nil {
		return nil, nil, err
	}
	a := agent.New(agent.Config{
		Identity: ident,
		Port:     uartio.WrapSerial(master),
		Pin:      gpioout.NewFakePin(),
		Engine:   wazeroengine.New(ctx, agent.HeapBudget),
		Logger:   agentlog.New(nil),
	})
	return a, slave, nil
}
