package novasar

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
)

// LoadOptions controls how a batch of products is opened.
type LoadOptions struct {
	// Parallel opens products on a pool of goroutines instead of one by one.
	Parallel bool

	// Workers caps the pool size when Parallel is set; 0 uses one worker
	// per CPU.
	Workers int

	// SkipErrors keeps going past products that fail to open and returns
	// their errors alongside the rest. Without it the first failure fails
	// the batch and every product opened so far is closed.
	SkipErrors bool

	// Progress, when set, is called once per product after it is tried.
	Progress func(loaded, total int)

	// ErrorLog, when set, receives one line per failed product.
	ErrorLog io.Writer
}

// DefaultLoadOptions opens in parallel on every CPU and skips failures.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Parallel: true, Workers: runtime.NumCPU(), SkipErrors: true}
}

// OpenAll opens several products, in parallel when opts.Parallel is set.
// Products are returned in path order; failed paths are left out.
//
// Example:
//
//	opts := novasar.DefaultLoadOptions()
//	opts.ErrorLog = os.Stderr
//	products, errs := novasar.OpenAll(ctx, reader, paths, opts)
func OpenAll(ctx context.Context, reader Reader, paths []string, opts LoadOptions) ([]*Product, []error) {
	return loadParallel(ctx, paths, opts, reader.Open, func(p *Product) { p.Close() })
}

// loadParallel runs load over paths with a worker pool. When errors are not
// skipped, any failure discards every loaded value and returns the first
// error in path order.
func loadParallel[T any](ctx context.Context, paths []string, opts LoadOptions,
	load func(context.Context, string) (T, error), discard func(T)) ([]T, []error) {
	if len(paths) == 0 {
		return nil, nil
	}

	workers := 1
	if opts.Parallel {
		workers = opts.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
	}
	workers = min(workers, len(paths))

	type outcome struct {
		index int
		value T
		err   error
	}

	jobs := make(chan int, len(paths))
	results := make(chan outcome, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				if err := ctx.Err(); err != nil {
					results <- outcome{index: index, err: err}
					continue
				}
				v, err := load(ctx, paths[index])
				results <- outcome{index: index, value: v, err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ok := make(map[int]T, len(paths))
	failed := make(map[int]error)
	done := 0
	for o := range results {
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(paths))
		}
		if o.err == nil {
			ok[o.index] = o.value
			continue
		}
		failed[o.index] = fmt.Errorf("%s: %w", paths[o.index], o.err)
		if opts.ErrorLog != nil {
			fmt.Fprintf(opts.ErrorLog, "Error loading product: %v\n", failed[o.index])
		}
	}

	var values []T
	var errs []error
	for i := range paths {
		if v, found := ok[i]; found {
			values = append(values, v)
		}
		if err, found := failed[i]; found {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 && !opts.SkipErrors {
		if discard != nil {
			for _, v := range values {
				discard(v)
			}
		}
		return nil, errs[:1]
	}
	return values, errs
}
