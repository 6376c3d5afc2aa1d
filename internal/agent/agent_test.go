package agent

import (
	"context"
	"testing"
	"time"

	"wasmnode-go/internal/agentlog"
	"wasmnode-go/internal/crc32x"
	"wasmnode-go/internal/gpioout"
	"wasmnode-go/internal/rxframer"
	"wasmnode-go/internal/sandbox"
	"wasmnode-go/internal/sandbox/fake"
	"wasmnode-go/internal/uartio"
)

// gatewayHarness plays the gateway side of the link: it sends command lines
// and reads back framed reply lines, reusing internal/rxframer to split the
// agent's byte stream the same way the agent itself does.
type gatewayHarness struct {
	t      *testing.T
	port   *uartio.Loopback
	framer *rxframer.Framer
}

func newGatewayHarness(t *testing.T, ctx context.Context, port *uartio.Loopback) *gatewayHarness {
	g := &gatewayHarness{t: t, port: port, framer: rxframer.New()}
	go func() {
		buf := make([]byte, 512)
		for {
			n, err := port.RecvSomeContext(ctx, buf)
			if err != nil {
				return
			}
			if n > 0 {
				g.framer.Ingest(buf[:n])
			}
		}
	}()
	return g
}

func (g *gatewayHarness) send(line string) {
	if _, err := g.port.Write([]byte(line + "\n")); err != nil {
		g.t.Fatalf("send: %v", err)
	}
}

func (g *gatewayHarness) expect(want string) {
	g.t.Helper()
	select {
	case line := <-g.framer.Lines():
		if string(line) != want {
			g.t.Fatalf("got %q, want %q", line, want)
		}
	case <-time.After(2 * time.Second):
		g.t.Fatalf("timed out waiting for %q", want)
	}
}

func (g *gatewayHarness) next(timeout time.Duration) (string, bool) {
	select {
	case line := <-g.framer.Lines():
		return string(line), true
	case <-time.After(timeout):
		return "", false
	}
}

func newTestAgent(engine sandbox.Engine, pin gpioout.Pin) (*Agent, *uartio.Loopback) {
	return newTestAgentWithTimeout(engine, pin, 0)
}

// newTestAgentWithTimeout lets TestUploadTimeout inject a short
// BinaryUploadTimeout instead of waiting on the real 5-second default.
func newTestAgentWithTimeout(engine sandbox.Engine, pin gpioout.Pin, uploadTimeout time.Duration) (*Agent, *uartio.Loopback) {
	agentSide, gatewaySide := uartio.NewLoopbackPair()
	a := New(Config{
		Identity:            Identity{DeviceID: "test01", RTOS: "goroutines", Runtime: "fake", FWVer: "0.0.0"},
		Port:                agentSide,
		Pin:                 pin,
		Engine:              engine,
		Logger:              agentlog.New(nil),
		BinaryUploadTimeout: uploadTimeout,
	})
	return a, gatewaySide
}

func runAgent(t *testing.T, a *Agent) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)
	t.Cleanup(cancel)
	return ctx, cancel
}

func TestHappyLoadAndVoidCall(t *testing.T) {
	payload := []byte("hello-wasm12")
	crc := crc32x.Checksum(payload)

	pin := gpioout.NewFakePin()
	engine := fake.NewEngine()
	engine.Register(payload, fake.ModuleSpec{
		Funcs: map[string]fake.FuncSpec{
			"run": {
				ResultArity: 0,
				Run: func(ctx context.Context, args []uint32, n sandbox.Natives) (uint32, error) {
					n.GPIOToggle()
					return 0, nil
				},
			},
		},
	})

	a, gwPort := newTestAgent(engine, pin)
	ctx, _ := runAgent(t, a)
	gw := newGatewayHarness(t, ctx, gwPort)

	gw.expect("HELLO device_id=test01 rtos=goroutines runtime=fake fw_version=0.0.0")

	gw.send("LOAD module_id=m1 size=12 crc32=" + hex32(crc))
	gw.expect("LOAD_READY size=12 crc32=" + hex32(crc))
	gwPort.Write(payload)
	gw.expect("LOAD_OK")

	gw.send("START module_id=m1 func=run")
	gw.expect("START_OK")
	gw.expect("RESULT status=OK func=run")

	if got := pin.Count(); got != 1 {
		t.Fatalf("pin toggles = %d, want 1", got)
	}
}

func TestCRCMismatch(t *testing.T) {
	payload := []byte("hello-wasm12")
	flipped := append([]byte(nil), payload...)
	flipped[0] ^= 0xFF
	crc := crc32x.Checksum(payload)

	engine := fake.NewEngine()
	engine.Register(payload, fake.ModuleSpec{Funcs: map[string]fake.FuncSpec{}})

	a, gwPort := newTestAgent(engine, gpioout.NewFakePin())
	ctx, _ := runAgent(t, a)
	gw := newGatewayHarness(t, ctx, gwPort)
	gw.expect("HELLO device_id=test01 rtos=goroutines runtime=fake fw_version=0.0.0")

	gw.send("LOAD module_id=m1 size=12 crc32=" + hex32(crc))
	gw.expect("LOAD_READY size=12 crc32=" + hex32(crc))
	gwPort.Write(flipped)

	line, ok := gw.next(2 * time.Second)
	if !ok {
		t.Fatal("expected a LOAD_ERR reply")
	}
	if want := "LOAD_ERR code=BAD_CRC"; len(line) < len(want) || line[:len(want)] != want {
		t.Fatalf("got %q, want prefix %q", line, want)
	}

	gw.send("STATUS")
	gw.expect(`STATUS_OK modules="none" runner=IDLE`)
}

func TestIntegerArgsAndReturn(t *testing.T) {
	payload := []byte("adder-module")
	crc := crc32x.Checksum(payload)
	engine := fake.NewEngine()
	engine.Register(payload, fake.ModuleSpec{
		Funcs: map[string]fake.FuncSpec{
			"add": {
				ResultArity: 1,
				Run: func(ctx context.Context, args []uint32, n sandbox.Natives) (uint32, error) {
					return args[0] + args[1], nil
				},
			},
		},
	})

	a, gwPort := newTestAgent(engine, gpioout.NewFakePin())
	ctx, _ := runAgent(t, a)
	gw := newGatewayHarness(t, ctx, gwPort)
	gw.expect("HELLO device_id=test01 rtos=goroutines runtime=fake fw_version=0.0.0")

	gw.send("LOAD module_id=m2 size=12 crc32=" + hex32(crc))
	gw.expect("LOAD_READY size=12 crc32=" + hex32(crc))
	gwPort.Write(payload)
	gw.expect("LOAD_OK")

	gw.send(`START module_id=m2 func=add args="a=200,b=26"`)
	gw.expect("START_OK")
	gw.expect("RESULT status=OK func=add ret_i32=226")
}

func TestBusyRejectionThenCompletion(t *testing.T) {
	payload := []byte("long-running1")
	crc := crc32x.Checksum(payload)
	release := make(chan struct{})
	engine := fake.NewEngine()
	engine.Register(payload, fake.ModuleSpec{
		Funcs: map[string]fake.FuncSpec{
			"spin": {
				Run: func(ctx context.Context, args []uint32, n sandbox.Natives) (uint32, error) {
					<-release
					return 0, nil
				},
			},
			"add": {
				ResultArity: 1,
				Run: func(ctx context.Context, args []uint32, n sandbox.Natives) (uint32, error) {
					return args[0] + args[1], nil
				},
			},
		},
	})

	a, gwPort := newTestAgent(engine, gpioout.NewFakePin())
	ctx, _ := runAgent(t, a)
	gw := newGatewayHarness(t, ctx, gwPort)
	gw.expect("HELLO device_id=test01 rtos=goroutines runtime=fake fw_version=0.0.0")

	gw.send("LOAD module_id=m3 size=13 crc32=" + hex32(crc))
	gw.expect("LOAD_READY size=13 crc32=" + hex32(crc))
	gwPort.Write(payload)
	gw.expect("LOAD_OK")

	gw.send("START module_id=m3 func=spin")
	gw.expect("START_OK")

	gw.send(`START module_id=m3 func=add args="a=1,b=2"`)
	gw.expect("RESULT status=BUSY")

	close(release)
	gw.expect("RESULT status=OK func=spin")
}

func TestCooperativeStop(t *testing.T) {
	payload := []byte("stoppable-mod")
	crc := crc32x.Checksum(payload)
	engine := fake.NewEngine()
	engine.Register(payload, fake.ModuleSpec{
		Funcs: map[string]fake.FuncSpec{
			"loop": {
				Run: func(ctx context.Context, args []uint32, n sandbox.Natives) (uint32, error) {
					for i := 0; i < 1000; i++ {
						if n.ShouldStop() {
							return 0, nil
						}
						time.Sleep(time.Millisecond)
					}
					return 0, nil
				},
			},
		},
	})

	a, gwPort := newTestAgent(engine, gpioout.NewFakePin())
	ctx, _ := runAgent(t, a)
	gw := newGatewayHarness(t, ctx, gwPort)
	gw.expect("HELLO device_id=test01 rtos=goroutines runtime=fake fw_version=0.0.0")

	gw.send("LOAD module_id=m4 size=13 crc32=" + hex32(crc))
	gw.expect("LOAD_READY size=13 crc32=" + hex32(crc))
	gwPort.Write(payload)
	gw.expect("LOAD_OK")

	gw.send("START module_id=m4 func=loop")
	gw.expect("START_OK")

	gw.send("STOP module_id=m4")
	gw.expect("STOP_OK status=PENDING")

	gw.expect("RESULT status=STOPPED func=loop")
}

func TestUploadTimeout(t *testing.T) {
	engine := fake.NewEngine()
	a, gwPort := newTestAgentWithTimeout(engine, gpioout.NewFakePin(), 50*time.Millisecond)
	ctx, _ := runAgent(t, a)
	gw := newGatewayHarness(t, ctx, gwPort)
	gw.expect("HELLO device_id=test01 rtos=goroutines runtime=fake fw_version=0.0.0")

	gw.send("LOAD module_id=m5 size=1024 crc32=deadbeef")
	gw.expect("LOAD_READY size=1024 crc32=deadbeef")
	gwPort.Write(make([]byte, 100))

	gw.expect(`LOAD_ERR code=TIMEOUT msg="binary payload not received"`)
	gw.send("STATUS")
	gw.expect(`STATUS_OK modules="none" runner=IDLE`)
}
