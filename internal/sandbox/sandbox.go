// Package sandbox declares the opaque guest-code collaborator spec.md treats
// as "out of scope": a module loader, an instance, and a callable export.
// internal/agent drives these interfaces without knowing or caring whether
// the guest is actually executed by wazero (internal/sandbox/wazeroengine) or by a
// hand-fed fake (internal/sandbox/fake).
package sandbox

import "context"

// Budget caps the resources a guest instance may use, per spec.md §4.4 step 9
// (8 KiB stack, 8 KiB heap).
type Budget struct {
	StackBytes uint32
	HeapBytes  uint32
}

// Natives are the host-provided callbacks bound into a guest instance's
// "env" namespace, per spec.md §4.5. They close over the Agent's GPIO Pin
// and the atomic stop_requested flag rather than reading globals.
type Natives struct {
	GPIOToggle func()
	ShouldStop func() bool
}

// Engine parses a raw module image into a Module. It never mutates the
// image and never blocks longer than the parse itself takes.
type Engine interface {
	Parse(ctx context.Context, image []byte) (Module, error)
}

// Module is a parsed-but-not-yet-running guest artifact, owned by the
// module slot between LOAD steps 8 and 9.
type Module interface {
	Instantiate(ctx context.Context, budget Budget, natives Natives) (Instance, error)
	Close(ctx context.Context) error
}

// Instance is a running guest, owned by the module slot once LOAD completes.
type Instance interface {
	Function(name string) (Function, bool)
	Close(ctx context.Context) error
}

// Function is one exported guest function. ResultArity is 0 or 1 for this
// system; RUNNER treats anything higher as "ignore extras, report first as
// i32", per spec.md §4.5 step 5: it only checks ResultArity() > 0 and uses
// the single value Call returns, so an Engine may report the full count.
type Function interface {
	ResultArity() int
	Call(ctx context.Context, args []uint32) (result uint32, err error)
}
