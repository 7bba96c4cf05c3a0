package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// defaultConcurrency bounds in-flight calls of "lark batch". The platform's
// per-app rate limits are low enough that more rarely helps.
const defaultConcurrency = 5

// bulkResult is the outcome of one item of runBulk.
type bulkResult[T any] struct {
	Index int
	Value T
	Err   error
}

// runBulk calls fn for items 0..n-1 with at most concurrency calls in
// flight. Results are ordered by index. Items not yet started when ctx is
// cancelled are left out. progress, when set, receives a counter line.
func runBulk[T any](ctx context.Context, n int, concurrency int64, progress io.Writer, fn func(context.Context, int) (T, error)) []bulkResult[T] {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	sem := semaphore.NewWeighted(concurrency)
	slots := make([]*bulkResult[T], n)
	var (
		g    errgroup.Group
		mu   sync.Mutex
		done atomic.Int64
	)
	report := func(final bool) {
		if progress == nil || n == 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(progress, "\rProcessed %d/%d", done.Load(), n)
		if final {
			_, _ = fmt.Fprintln(progress)
		}
	}

	for i := 0; i < n; i++ {
		i := i
		if ctx.Err() != nil || sem.Acquire(ctx, 1) != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			v, err := fn(ctx, i)
			slots[i] = &bulkResult[T]{Index: i, Value: v, Err: err}
			done.Add(1)
			report(false)
			return nil
		})
	}
	_ = g.Wait()
	report(true)

	results := make([]bulkResult[T], 0, n)
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}
