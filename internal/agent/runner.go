package agent

import (
	"context"

	"wasmnode-go/errcode"
	"wasmnode-go/x/strconvx"
)

// RunnerLoop is C5: the single long-lived executor worker. Per-job panics
// from guest-triggered native callbacks are recovered so a misbehaving
// guest cannot take down the goroutine — the teacher's own packages never
// need this because they never execute untrusted code (SPEC_FULL.md §7).
func (a *Agent) RunnerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.jobSem:
		}
		a.runOneJob(ctx)
	}
}

func (a *Agent) runOneJob(ctx context.Context) {
	// Step 3: snapshot. req was written by COMM strictly before the job
	// semaphore was raised, so this read is race-free.
	req := a.req

	defer func() {
		if r := recover(); r != nil {
			a.writeLine("RESULT status=" + string(errcode.Exception) + " func=" + req.funcName + ` msg="recovered panic"`)
		}
		a.busy.Store(false)
		a.stopRequested.Store(false)
	}()

	// req.inst is the instance snapshotted at START. A LOAD that tears the
	// slot down after dispatch is not detected here: the job still runs
	// against that snapshot.
	if req.inst == nil {
		return
	}

	fn, ok := req.inst.Function(req.funcName)
	if !ok {
		a.writeLine("RESULT status=" + string(errcode.NoFunc) + " name=" + req.funcName)
		return
	}

	ret, err := fn.Call(ctx, req.args[:req.argc])
	switch {
	case err != nil:
		a.writeLine("RESULT status=" + string(errcode.Of(err)) + " func=" + req.funcName + ` msg="` + err.Error() + `"`)
	case a.stopRequested.Load():
		a.writeLine("RESULT status=" + string(errcode.Stopped) + " func=" + req.funcName)
	case fn.ResultArity() > 0:
		a.writeLine("RESULT status=OK func=" + req.funcName + " ret_i32=" + strconvx.FormatUint(uint64(ret), 10))
	default:
		a.writeLine("RESULT status=OK func=" + req.funcName)
	}
}
