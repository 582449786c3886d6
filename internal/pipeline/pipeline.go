// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"sync"

	"motifsampler/internal/engine"
)

// Config controls the attempt pool.
type Config struct {
	Workers  int // number of worker goroutines (>=1)
	Attempts int // total attempts to run
}

// Outcome is one finished attempt.
type Outcome struct {
	Worker int
	Iter   int
	Result engine.Result
}

// ForEachAttempt runs cfg.Attempts searches on cfg.Workers goroutines and
// calls visit for each finished attempt. visit runs on a single collector
// goroutine, so it may update shared state without locking. The first error
// from newSearcher or visit stops the remaining attempts and is returned;
// otherwise the context error, if any.
func ForEachAttempt(
	ctx context.Context,
	cfg Config,
	newSearcher Factory,
	visit func(Outcome) error,
) error {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Workers > cfg.Attempts && cfg.Attempts > 0 {
		cfg.Workers = cfg.Attempts
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int, cfg.Workers*2)
	results := make(chan Outcome, cfg.Workers*2)

	// Workers
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		go func(worker int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case iter, ok := <-jobs:
					if !ok {
						return
					}
					s, err := newSearcher(worker, iter)
					if err != nil {
						fail(err)
						return
					}
					res, err := s.Search(ctx, worker, iter)
					if err != nil {
						// cancellation surfaces through ctx.Err below
						if ctx.Err() == nil {
							fail(err)
						}
						return
					}
					select {
					case results <- Outcome{Worker: worker, Iter: iter, Result: res}:
					case <-ctx.Done():
						return
					}
				}
			}
		}(w)
	}

	// Collector
	var cwg sync.WaitGroup
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for o := range results {
			if ctx.Err() != nil {
				continue
			}
			if err := visit(o); err != nil {
				fail(err)
			}
		}
	}()

	// Feed work
feed:
	for i := 0; i < cfg.Attempts; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
