package fn

import (
	"context"
	"fmt"
	"sync"
)

// FanOut runs every task concurrently with the same context and returns
// the results in argument order once all have finished. A task that panics
// yields an error result.
func FanOut[T any](ctx context.Context, tasks ...func(context.Context) Result[T]) []Result[T] {
	out := make([]Result[T], len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					out[i] = Err[T](fmt.Errorf("fn: task %d panicked: %v", i, p))
				}
			}()
			out[i] = task(ctx)
		}()
	}
	wg.Wait()
	return out
}
