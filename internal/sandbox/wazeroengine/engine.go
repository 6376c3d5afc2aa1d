// Package wazeroengine wires github.com/tetratelabs/wazero behind
// internal/sandbox's interfaces. It is the only package in this repository
// that imports wazero directly; everything above internal/agent talks to
// the opaque sandbox.Engine/Module/Instance/Function contracts instead.
package wazeroengine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"wasmnode-go/internal/sandbox"
)

// wasmPageSize is the WebAssembly linear-memory page size (64 KiB), used to
// translate a byte heap budget into wazero's page-count memory limit.
const wasmPageSize = 64 * 1024

// Engine adapts a long-lived wazero.Runtime to sandbox.Engine. One Engine is
// created at agent startup and reused across every LOAD, since this system
// never runs two modules at once (spec.md Non-goals).
type Engine struct {
	rt wazero.Runtime
}

// New creates a wazero runtime configured for interpreter-mode execution —
// this agent targets both a desktop host and, eventually, constrained MCU
// builds, so the compiler-based (native-codegen) wazero mode is never worth
// its extra memory footprint here.
//
// wazero bounds guest linear memory at the runtime, not per-instantiation,
// so heapBytes is applied here rather than read back out of the Budget
// passed to Instantiate. Every LOAD in this agent uses the same fixed
// budget (spec.md §4.4 step 9), so the two never actually diverge.
func New(ctx context.Context, heapBytes uint32) *Engine {
	pages := (heapBytes + wasmPageSize - 1) / wasmPageSize
	if pages == 0 {
		pages = 1
	}
	cfg := wazero.NewRuntimeConfigInterpreter().WithMemoryLimitPages(pages)
	return &Engine{rt: wazero.NewRuntimeWithConfig(ctx, cfg)}
}

// Close releases the underlying runtime. Call once at shutdown.
func (e *Engine) Close(ctx context.Context) error {
	return e.rt.Close(ctx)
}

func (e *Engine) Parse(ctx context.Context, image []byte) (sandbox.Module, error) {
	compiled, err := e.rt.CompileModule(ctx, image)
	if err != nil {
		return nil, err
	}
	return &module{rt: e.rt, compiled: compiled}, nil
}

type module struct {
	rt       wazero.Runtime
	compiled wazero.CompiledModule
}

func (m *module) Instantiate(ctx context.Context, budget sandbox.Budget, natives sandbox.Natives) (sandbox.Instance, error) {
	builder := m.rt.NewHostModuleBuilder("env")
	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module) {
			natives.GPIOToggle()
		}).
		Export("gpio_toggle")
	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module) uint32 {
			if natives.ShouldStop() {
				return 1
			}
			return 0
		}).
		Export("should_stop")

	env, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("binding env natives: %w", err)
	}

	// budget.HeapBytes is enforced at the runtime level by New, not here —
	// see its doc comment. There is no direct equivalent of a separate
	// guest call-stack byte budget in wazero's public API (unlike WAMR) —
	// the interpreter's own Go call stack stands in for it, guarded by
	// Go's stack growth rather than a fixed arena. budget.StackBytes is
	// accepted for interface parity with spec.md's two-budget model and is
	// otherwise advisory here.
	modCfg := wazero.NewModuleConfig().WithName("guest")
	guest, err := m.rt.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		_ = env.Close(ctx)
		return nil, err
	}
	return &instance{guest: guest, env: env}, nil
}

func (m *module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

type instance struct {
	guest api.Module
	env   api.Module
}

func (i *instance) Function(name string) (sandbox.Function, bool) {
	fn := i.guest.ExportedFunction(name)
	if fn == nil {
		return nil, false
	}
	return &function{fn: fn}, true
}

func (i *instance) Close(ctx context.Context) error {
	err := i.guest.Close(ctx)
	if envErr := i.env.Close(ctx); err == nil {
		err = envErr
	}
	return err
}

type function struct {
	fn api.Function
}

func (f *function) ResultArity() int {
	return len(f.fn.Definition().ResultTypes())
}

func (f *function) Call(ctx context.Context, args []uint32) (uint32, error) {
	params := make([]uint64, len(args))
	for i, a := range args {
		params[i] = uint64(a)
	}
	results, err := f.fn.Call(ctx, params...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return uint32(results[0]), nil
}
