// Command gateway-sim plays the gateway side of the link: either against an
// in-process agent over a loopback pair, or against a real device path, and
// lets an operator type LOAD/START/STOP/STATUS lines on stdin the way the
// teacher's cmd/uart-test drives a HAL session from a terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wasmnode-go/internal/platform"
	"wasmnode-go/internal/rxframer"
	"wasmnode-go/internal/uartio"
)

func main() {
	device := flag.String("device", "", "connect to a real device path instead of spawning a simulated agent")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var port uartio.Port
	if *device != "" {
		p, err := uartio.OpenSerial(*device)
		if err != nil {
			fmt.Fprintln(os.Stderr, "[gateway-sim] open device:", err)
			os.Exit(1)
		}
		port = p
	} else {
		ident := platform.Identity{
			DeviceID: "sim01",
			RTOS:     "goroutines",
			Runtime:  "wazero",
			FWVer:    "0.1.0",
		}
		a, gatewaySide := platform.NewHostAgentWithLoopback(ctx, ident)
		go a.Run(ctx)
		port = gatewaySide
	}

	framer := rxframer.New()
	go func() {
		buf := make([]byte, 512)
		for {
			n, err := port.RecvSomeContext(ctx, buf)
			if err != nil {
				return
			}
			if n > 0 {
				framer.Ingest(buf[:n])
			}
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-framer.Lines():
				if !ok {
					return
				}
				fmt.Println(string(line))
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := port.Write([]byte(line + "\n")); err != nil {
			fmt.Fprintln(os.Stderr, "[gateway-sim] write:", err)
			return
		}
	}
}
