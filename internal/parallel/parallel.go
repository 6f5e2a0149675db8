// Package parallel provides the fork-join map used to fan out independent
// sampling tasks.
//
// Inputs are treated as read-only and shared by every worker. Each task
// writes its result into its own slot of the output slice, so no locking is
// needed; Map returns only after every task has finished.
package parallel

import (
	"runtime"
	"sync"
)

// Map applies fn to every element of items on up to workers goroutines and
// returns the results in input order. workers <= 0 uses GOMAXPROCS.
//
// There is no cancellation: a slow task delays completion of the whole
// call. fn must not mutate shared state.
func Map[T, R any](items []T, workers int, fn func(int, T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(items) {
		workers = len(items)
	}

	if workers == 1 {
		for i, item := range items {
			out[i] = fn(i, item)
		}
		return out
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = fn(i, items[i])
			}
		}()
	}
	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// Flatten concatenates the slices produced by Map.
func Flatten[T any](parts [][]T) []T {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
