package agent

import (
	"context"
	"sync"
)

// Run starts the RX-ingest, COMM, and RUNNER loops, emits the one-time
// HELLO greeting once all three are up, and blocks until ctx is done.
func (a *Agent) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); a.RXLoop(ctx) }()
	go func() { defer wg.Done(); a.CommLoop(ctx) }()
	go func() { defer wg.Done(); a.RunnerLoop(ctx) }()

	a.Hello()

	wg.Wait()
}
