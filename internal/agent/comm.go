package agent

import (
	"context"
	"strings"
	"time"

	"wasmnode-go/errcode"
	"wasmnode-go/internal/crc32x"
	"wasmnode-go/internal/cmdline"
	"wasmnode-go/internal/sandbox"
	"wasmnode-go/x/conv"
	"wasmnode-go/x/strconvx"
)

// maxModuleBytes bounds a single LOAD's declared size. This agent has no
// real heap-exhaustion signal to observe the way the original's malloc()
// does, so a configured ceiling stands in for "allocation failed": a larger
// declared size is answered with NO_MEM.
const maxModuleBytes = 64 * 1024

// StackBudget and HeapBudget are spec.md §4.4 step 9's fixed per-instance
// budgets. Exported so internal/platform can size the sandbox.Engine's
// memory limit to match at construction time.
const (
	StackBudget = 8 * 1024
	HeapBudget  = 8 * 1024
)

// maxModuleIDLen is spec.md §3's "≤31 printable bytes" module identifier cap.
const maxModuleIDLen = 31

// RXLoop is the emulated RX interrupt: it blocks reading the physical link
// and feeds whatever arrives into the framer, never holding the link open
// longer than one read. It never blocks on anything but the read itself.
func (a *Agent) RXLoop(ctx context.Context) {
	buf := make([]byte, 512)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := a.port.RecvSomeContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if n > 0 {
			a.framer.Ingest(buf[:n])
		}
	}
}

// CommLoop is C4: the single cooperative consumer of the line queue.
func (a *Agent) CommLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-a.framer.Lines():
			if !ok {
				return
			}
			a.handleLine(line)
		}
	}
}

func (a *Agent) handleLine(line []byte) {
	cmd := cmdline.Parse(string(line))
	switch cmd.Verb {
	case "LOAD":
		a.handleLoad(cmd)
	case "START":
		a.handleStart(cmd)
	case "STOP":
		a.handleStop(cmd)
	case "STATUS":
		a.handleStatus()
	default:
		a.writeLine("ERROR code=" + string(errcode.UnknownCommand))
	}
}

// writeLine serializes one reply at line granularity under the TX mutex,
// per spec.md §5's explicit "a TX mutex is the safe choice" mandate.
func (a *Agent) writeLine(s string) {
	a.txMu.Lock()
	defer a.txMu.Unlock()
	_, _ = a.port.Write([]byte(s + "\n"))
}

func hex32(n uint32) string {
	var buf [8]byte
	out := conv.U32Hex(buf[:], n)
	return strings.ToLower(string(out))
}

// ---- LOAD ------------------------------------------------------------

func (a *Agent) handleLoad(cmd cmdline.Command) {
	sizeStr, hasSize := cmd.Param("size")
	crcStr, hasCRC := cmd.Param("crc32")
	if !hasSize {
		a.writeLine(`LOAD_ERR code=BAD_PARAMS msg="missing size"`)
		return
	}
	if !hasCRC {
		a.writeLine(`LOAD_ERR code=BAD_PARAMS msg="missing crc32"`)
		return
	}

	size, err := strconvx.Atoi(sizeStr)
	if err != nil || size <= 0 {
		a.writeLine(`LOAD_ERR code=BAD_PARAMS msg="size=0"`)
		return
	}
	crcU64, err := strconvx.ParseUint(crcStr, 16, 32)
	if err != nil {
		a.writeLine(`LOAD_ERR code=BAD_PARAMS msg="bad crc32"`)
		return
	}
	declaredCRC := uint32(crcU64)

	// Step 3: tear down any existing slot unconditionally before the new
	// allocation, per spec.md §4.4 step 3.
	a.teardownSlot()

	if size > maxModuleBytes {
		a.writeLine("LOAD_ERR code=" + string(errcode.NoMem))
		return
	}
	buf := make([]byte, size)

	done := a.framer.BeginBinary(buf)
	// Echo crcStr verbatim (not the recomputed/lowercased form): the
	// gateway's own hex spelling round-trips here, matching the original
	// agent_write_str(out_buf) which never re-derives this string.
	a.writeLine("LOAD_READY size=" + strconvx.Itoa(size) + " crc32=" + crcStr)

	select {
	case <-done:
	case <-time.After(a.binaryUploadTimeout):
		a.framer.AbortBinary()
		a.writeLine(`LOAD_ERR code=TIMEOUT msg="binary payload not received"`)
		return
	}

	gotCRC := crc32x.Checksum(buf)
	if gotCRC != declaredCRC {
		a.writeLine("LOAD_ERR code=" + string(errcode.BadCRC) +
			` msg="expected=` + hex32(declaredCRC) + " got=" + hex32(gotCRC) + `"`)
		return
	}

	outcome := a.finishLoad(buf)
	switch outcome.kind {
	case loadFailParse:
		a.writeLine("LOAD_ERR code=" + string(errcode.LoadFail) + ` msg="` + outcome.msg + `"`)
	case loadFailInstantiate:
		a.writeLine("LOAD_ERR code=" + string(errcode.InstantiateFail) + ` msg="` + outcome.msg + `"`)
	case loadOK:
		id, _ := cmd.Param("module_id")
		if len(id) > maxModuleIDLen {
			id = id[:maxModuleIDLen]
		}
		a.slot = moduleSlot{
			loaded:   true,
			id:       id,
			buf:      buf,
			module:   outcome.module,
			instance: outcome.instance,
		}
		a.log.Println("[comm] loaded module_id=", id, " size=", size)
		a.writeLine("LOAD_OK")
	}
}

type loadResultKind int

const (
	loadOK loadResultKind = iota
	loadFailParse
	loadFailInstantiate
)

type loadResult struct {
	kind     loadResultKind
	msg      string
	module   sandbox.Module
	instance sandbox.Instance
}

// finishLoad implements spec.md §4.4 steps 8-9: parse then instantiate,
// consolidated into the single result-and-cleanup shape Design Notes §9
// recommends instead of a free site duplicated at each step.
func (a *Agent) finishLoad(buf []byte) loadResult {
	mod, err := a.engine.Parse(context.Background(), buf)
	if err != nil {
		return loadResult{kind: loadFailParse, msg: err.Error()}
	}
	inst, err := mod.Instantiate(context.Background(), sandbox.Budget{
		StackBytes: StackBudget,
		HeapBytes:  HeapBudget,
	}, a.natives())
	if err != nil {
		_ = mod.Close(context.Background())
		return loadResult{kind: loadFailInstantiate, msg: err.Error()}
	}
	return loadResult{kind: loadOK, module: mod, instance: inst}
}

// teardownSlot destroys the slot's resources in strict reverse acquisition
// order (instance, then module), per spec.md §5's resource lifecycle rule.
func (a *Agent) teardownSlot() {
	if !a.slot.loaded {
		return
	}
	if a.slot.instance != nil {
		_ = a.slot.instance.Close(context.Background())
	}
	if a.slot.module != nil {
		_ = a.slot.module.Close(context.Background())
	}
	a.slot = moduleSlot{}
}

// ---- START -------------------------------------------------------------

func (a *Agent) handleStart(cmd cmdline.Command) {
	if !a.slot.loaded {
		a.writeLine("RESULT status=" + string(errcode.NoModule))
		return
	}
	id, hasID := cmd.Param("module_id")
	if !hasID {
		a.writeLine("RESULT status=" + string(errcode.BadParams))
		return
	}
	if id != a.slot.id {
		a.writeLine("RESULT status=" + string(errcode.NoModule) + ` msg="module_id mismatch"`)
		return
	}
	if a.busy.Load() {
		a.writeLine("RESULT status=" + string(errcode.Busy))
		return
	}
	funcName, hasFunc := cmd.Param("func")
	if !hasFunc {
		a.writeLine("RESULT status=" + string(errcode.BadParams))
		return
	}
	if _, ok := a.slot.instance.Function(funcName); !ok {
		a.writeLine("RESULT status=" + string(errcode.NoFunc) + " name=" + funcName)
		return
	}

	// RUNNER re-resolves the export from this same snapshot (spec.md §4.5
	// step 4) rather than reusing the sandbox.Function found here, which
	// eliminates the TOCTOU spec.md §3 calls out for the shared request.
	req := runRequest{funcName: funcName, inst: a.slot.instance}
	req.argc = len(cmd.Args)
	for i, v := range cmd.Args {
		if i >= len(req.args) {
			break
		}
		req.args[i] = uint32(v)
	}
	a.req = req
	a.stopRequested.Store(false)
	a.busy.Store(true)
	// START_OK goes out before the job is signalled so a fast job's RESULT
	// line can never overtake it.
	a.writeLine("START_OK")
	a.jobSem <- struct{}{}
	a.log.Println("[comm] dispatched func=", funcName)
}

// ---- STOP ----------------------------------------------------------------

func (a *Agent) handleStop(cmd cmdline.Command) {
	if !a.busy.Load() {
		a.writeLine("STOP_OK status=IDLE")
		return
	}
	id, hasID := cmd.Param("module_id")
	if !hasID || id != a.slot.id {
		// Missing or non-matching module_id: not an error, cancellation is
		// best-effort and idempotent (spec.md §4.4, Design Notes §9 open
		// question — specified as-is).
		a.writeLine("STOP_OK status=NO_JOB")
		return
	}
	a.stopRequested.Store(true)
	a.writeLine("STOP_OK status=PENDING")
}

// ---- STATUS ----------------------------------------------------------------

func (a *Agent) handleStatus() {
	modules := `"none"`
	if a.slot.loaded {
		modules = `"wasm_module(loaded)"`
	}
	runner := "IDLE"
	if a.busy.Load() {
		runner = "RUNNING"
	}
	a.writeLine("STATUS_OK modules=" + modules + " runner=" + runner)
}

// Hello emits the one-time startup greeting, per spec.md §6. Callers invoke
// this once after RXLoop/CommLoop/RunnerLoop are all running.
func (a *Agent) Hello() {
	a.writeLine("HELLO device_id=" + a.ident.DeviceID +
		" rtos=" + a.ident.RTOS +
		" runtime=" + a.ident.Runtime +
		" fw_version=" + a.ident.FWVer)
}
