// Package concurrency provides the port layer's concurrent teardown
// helper: closing every open port connection in parallel, bounded by a
// deadline, and reporting the first failure (spec.md §1 "the
// filesystem and network ports" are an external collaborator; SPEC_FULL
// §6.3 has them close concurrently rather than one at a time).
// Grounded on the teacher's ConcurrencyModule.WorkerPool
// (cancel+sync.WaitGroup+timeout shutdown in StopWorkerPool), replaced
// here with golang.org/x/sync/errgroup's cancel-on-first-error
// semantics — the same library internal/trampoline already uses for
// RunConcurrent, so the port layer and the evaluator share one
// fan-out/cancel idiom instead of two.
package concurrency

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Closer is anything a port backend can shut down: a database
// connection, a websocket, an open file handle.
type Closer interface {
	Close() error
}

// CloseAll closes every c in conns concurrently, returning the first
// error encountered (if any) once every close attempt has finished or
// deadline has elapsed. A slow Close does not block the others — this
// is the direct replacement for the teacher's StopWorkerPool, which
// canceled a context and waited on a single WaitGroup for every worker
// to notice; here each close races independently under one shared
// deadline instead.
func CloseAll(ctx context.Context, deadline time.Duration, conns []Closer) error {
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	g, _ := errgroup.WithContext(ctx)
	for _, c := range conns {
		c := c
		g.Go(func() error {
			done := make(chan error, 1)
			go func() { done <- c.Close() }()
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return fmt.Errorf("concurrency: close did not finish before deadline: %w", ctx.Err())
			}
		})
	}
	return g.Wait()
}
