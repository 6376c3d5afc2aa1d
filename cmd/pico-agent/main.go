//go:build tinygo

// Command pico-agent is the on-device entry point, mirroring the teacher's
// cmd/pico-hal-main boot sequence (settle delay, then run).
package main

import (
	"context"
	"time"

	"wasmnode-go/internal/platform"
)

func main() {
	time.Sleep(1500 * time.Millisecond)
	ctx := context.Background()

	println("[pico-agent] boot")

	ident := platform.Identity{
		DeviceID: "pico01",
		RTOS:     "tinygo-goroutines",
		Runtime:  "wazero",
		FWVer:    "0.1.0",
	}

	a, err := platform.NewMCUAgent(ctx, ident)
	if err != nil {
		println("[pico-agent] init:", err.Error())
		return
	}
	a.Run(ctx)
}
