// Package fake is an in-memory stand-in for internal/sandbox, built the same
// way the teacher built fakeAdaptor in services/hal/worker_test.go: a small
// struct satisfying the real interface, with counters and injectable
// behaviour, no mocking framework.
package fake

import (
	"context"
	"errors"
	"sync"

	"wasmnode-go/internal/sandbox"
)

// FuncSpec describes one exported function a fake module advertises.
type FuncSpec struct {
	ResultArity int

	// Run implements the export. It receives the natives bound at
	// Instantiate time, so tests can exercise gpio_toggle/should_stop
	// exactly as a real guest would. A nil Run returns (0, nil).
	Run func(ctx context.Context, args []uint32, natives sandbox.Natives) (uint32, error)
}

// ModuleSpec is what Engine.Parse resolves an image to. Tests register
// images by exact byte content via Engine.Register.
type ModuleSpec struct {
	ParseErr       error
	InstantiateErr error
	Funcs          map[string]FuncSpec
}

// Engine is a sandbox.Engine that resolves images registered ahead of time
// by exact content match. An unregistered image is treated as LOAD_FAIL,
// matching "the engine rejected this artifact" rather than a panic.
type Engine struct {
	mu        sync.Mutex
	byContent map[string]ModuleSpec

	Parses int // count of Parse calls, for assertions
}

// NewEngine returns an empty fake engine.
func NewEngine() *Engine {
	return &Engine{byContent: map[string]ModuleSpec{}}
}

// Register associates image with spec so a later Parse(ctx, image) resolves
// to it.
func (e *Engine) Register(image []byte, spec ModuleSpec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byContent[string(image)] = spec
}

var errUnknownImage = errors.New("fake sandbox: unregistered module image")

func (e *Engine) Parse(ctx context.Context, image []byte) (sandbox.Module, error) {
	e.mu.Lock()
	e.Parses++
	spec, ok := e.byContent[string(image)]
	e.mu.Unlock()
	if !ok {
		return nil, errUnknownImage
	}
	if spec.ParseErr != nil {
		return nil, spec.ParseErr
	}
	return &module{spec: spec}, nil
}

type module struct {
	spec   ModuleSpec
	closed bool
}

func (m *module) Instantiate(ctx context.Context, budget sandbox.Budget, natives sandbox.Natives) (sandbox.Instance, error) {
	if m.spec.InstantiateErr != nil {
		return nil, m.spec.InstantiateErr
	}
	return &instance{funcs: m.spec.Funcs, natives: natives}, nil
}

func (m *module) Close(ctx context.Context) error {
	m.closed = true
	return nil
}

type instance struct {
	funcs   map[string]FuncSpec
	natives sandbox.Natives
	closed  bool

	Calls int // total Call invocations, for assertions
}

func (i *instance) Function(name string) (sandbox.Function, bool) {
	spec, ok := i.funcs[name]
	if !ok {
		return nil, false
	}
	return &function{inst: i, spec: spec}, true
}

func (i *instance) Close(ctx context.Context) error {
	i.closed = true
	return nil
}

type function struct {
	inst *instance
	spec FuncSpec
}

func (f *function) ResultArity() int { return f.spec.ResultArity }

func (f *function) Call(ctx context.Context, args []uint32) (uint32, error) {
	f.inst.Calls++
	if f.spec.Run == nil {
		return 0, nil
	}
	return f.spec.Run(ctx, args, f.inst.natives)
}
