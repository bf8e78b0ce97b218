// Package parallel runs independent generation jobs across a bounded worker
// pool. Jobs are heavyweight (a full graph compilation each), so there is no
// chunking; each worker pulls one index at a time.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/multierr"
)

// Config controls worker-pool execution.
type Config struct {
	Workers int // Number of concurrent workers; values < 1 mean sequential.
}

// DefaultConfig sizes the pool to the CPU count.
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

// ForEach executes f(i) for i in [0, n) on cfg.Workers goroutines. Every
// job runs unless ctx is cancelled first; errors are collected and combined
// in job order, so the result is deterministic regardless of scheduling.
func ForEach(ctx context.Context, n int, cfg Config, f func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	errs := make([]error, n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = f(i)
			}
		}()
	}

	var cancelled error
dispatch:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return multierr.Append(multierr.Combine(errs...), cancelled)
}
