// Package agent implements the module lifecycle/protocol controller (COMM,
// comm.go) and the executor (RUNNER, runner.go) of spec.md §4.4/§4.5,
// coordinated the way Design Notes §9 prescribes: a single owned Agent
// value, COMM holding exclusive ownership of the module slot and RX mode,
// RUNNER holding a shared read-only handle plus atomic flags and a bounded
// job channel.
package agent

import (
	"sync"
	"sync/atomic"
	"time"

	"wasmnode-go/internal/agentlog"
	"wasmnode-go/internal/gpioout"
	"wasmnode-go/internal/rxframer"
	"wasmnode-go/internal/sandbox"
	"wasmnode-go/internal/uartio"
)

// defaultBinaryUploadTimeout is spec.md §4.4 step 6's 5-second bound,
// applied whenever Config.BinaryUploadTimeout is left zero.
const defaultBinaryUploadTimeout = 5 * time.Second

// Identity is the fixed HELLO-line identity of this node, per spec.md §6.
type Identity struct {
	DeviceID string
	RTOS     string
	Runtime  string
	FWVer    string
}

// moduleSlot holds the currently loaded guest, if any. Only COMM mutates it.
// A LOAD tears it down even while busy is true; a job already dispatched
// keeps the instance reference snapshotted in runRequest.
type moduleSlot struct {
	loaded   bool
	id       string
	buf      []byte // the raw module image, kept for the lifetime of the slot per spec.md §3
	module   sandbox.Module
	instance sandbox.Instance
}

// runRequest is the shared job handed from COMM to RUNNER. COMM writes it
// strictly before sending on jobSem; RUNNER only reads it after receiving,
// which is the happens-before spec.md §5 requires ("fields valid when job
// semaphore fires").
type runRequest struct {
	funcName string
	argc     int
	args     [4]uint32
	inst     sandbox.Instance // the instance live at START time, snapshotted
}

// Agent is the single owned value Design Notes §9 asks for in place of the
// original's process-wide globals.
type Agent struct {
	ident  Identity
	port   uartio.Port
	txMu   sync.Mutex // serializes writes to port, per spec.md §5's TX mandate
	pin    gpioout.Pin
	engine sandbox.Engine
	framer *rxframer.Framer
	log    *agentlog.Logger

	slot moduleSlot // COMM-exclusive

	jobSem chan struct{}
	req    runRequest

	busy          atomic.Bool
	stopRequested atomic.Bool

	binaryUploadTimeout time.Duration
}

// Config gathers an Agent's collaborators, each named per the GLOSSARY in
// SPEC_FULL.md.
type Config struct {
	Identity Identity
	Port     uartio.Port
	Pin      gpioout.Pin
	Engine   sandbox.Engine
	Logger   *agentlog.Logger

	// BinaryUploadTimeout bounds how long handleLoad waits for the binary
	// payload after LOAD_READY, per spec.md §4.4 step 6. Zero means
	// defaultBinaryUploadTimeout; tests inject a short value to exercise the
	// timeout path without a 5-second wait.
	BinaryUploadTimeout time.Duration
}

// New constructs an Agent ready to Run. The RX framer and job channel are
// created here so they exist before Run starts the loops that use them.
func New(cfg Config) *Agent {
	timeout := cfg.BinaryUploadTimeout
	if timeout == 0 {
		timeout = defaultBinaryUploadTimeout
	}
	a := &Agent{
		ident:               cfg.Identity,
		port:                cfg.Port,
		pin:                 cfg.Pin,
		engine:              cfg.Engine,
		framer:              rxframer.New(),
		log:                 cfg.Logger,
		jobSem:              make(chan struct{}, 1),
		binaryUploadTimeout: timeout,
	}
	return a
}
