//go:build !tinygo

package gpioout

import "sync"

// FakePin counts toggles for host tests, built the same way the teacher
// built platform.FakePin.
type FakePin struct {
	mu    sync.Mutex
	level bool
	count int
}

func NewFakePin() *FakePin { return &FakePin{} }

func (p *FakePin) Toggle() {
	p.mu.Lock()
	p.level = !p.level
	p.count++
	p.mu.Unlock()
}

// Count reports how many times Toggle has been called.
func (p *FakePin) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Level reports the pin's current logical level.
func (p *FakePin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}
