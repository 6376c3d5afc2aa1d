// Command agent runs the WASM execution agent against a real serial device,
// following the teacher's cmd/boardtest convention of a small flag-driven
// main wiring one platform constructor and blocking until ctx is canceled.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"wasmnode-go/internal/platform"
)

func main() {
	device := flag.String("device", "/dev/ttyACM0", "serial device path to the gateway link")
	deviceID := flag.String("device-id", "agent01", "identity reported in HELLO")
	fwVersion := flag.String("fw-version", "0.1.0", "firmware version reported in HELLO")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ident := platform.Identity{
		DeviceID: *deviceID,
		RTOS:     "goroutines",
		Runtime:  "wazero",
		FWVer:    *fwVersion,
	}

	a, err := platform.NewHostAgent(ctx, ident, *device)
	if err != nil {
		println("[agent] open device:", err.Error())
		os.Exit(1)
	}
	a.Run(ctx)
}
