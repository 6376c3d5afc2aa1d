//go:build tinygo

package platform

import (
	"context"

	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"wasmnode-go/internal/agent"
	"wasmnode-go/internal/agentlog"
	"wasmnode-go/internal/gpioout"
	"wasmnode-go/internal/sandbox/wazeroengine"
	"wasmnode-go/internal/uartio"
)

// LEDPin is the board's onboard LED, the same default gpio_toggle target
// the original firmware drives.
const LEDPin = machine.LED

// NewMCUAgent wires UART0 and the onboard LED into an Agent for
// cmd/pico-agent.
func NewMCUAgent(ctx context.Context, ident Identity) (*agent.Agent, error) {
	port, err := uartio.WrapUART(uartx.UART0)
	if err != nil {
		return nil, err
	}
	return agent.New(agent.Config{
		Identity: ident,
		Port:     port,
		Pin:      gpioout.NewMCUPin(LEDPin),
		Engine:   wazeroengine.New(ctx, agent.HeapBudget),
		Logger:   agentlog.New(nil),
	}), nil
}
