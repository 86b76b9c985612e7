package utils

import (
	"context"
	"sync"
)

type CompletedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

// RunInPool applies worker to every input using at most maxWorkers
// goroutines. Completed tasks are sent on the returned channel, which is
// closed once every input has been handled. Inputs not yet started when ctx
// is cancelled complete with ctx.Err().
func RunInPool[In any, Out any](ctx context.Context, inputs []In, worker func(context.Context, In) (Out, error), maxWorkers int) <-chan CompletedTask[Out] {
	workers := max(min(len(inputs), maxWorkers), 1)

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	completed := make(chan CompletedTask[Out], len(inputs))

	go func() {
		wg := sync.WaitGroup{}
		wg.Add(workers)

		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()

				for idx := range queue {
					if err := ctx.Err(); err != nil {
						completed <- CompletedTask[Out]{Index: idx, Error: err}
						continue
					}

					res, err := worker(ctx, inputs[idx])
					completed <- CompletedTask[Out]{Index: idx, Result: res, Error: err}
				}
			}()
		}

		wg.Wait()

		close(completed)
	}()

	return completed
}

// MapInPool is RunInPool collected back into input order. onDone, if set, is
// called once per completed task. The first error observed is returned.
func MapInPool[In any, Out any](ctx context.Context, inputs []In, worker func(context.Context, In) (Out, error), maxWorkers int, onDone func()) ([]Out, error) {
	out := make([]Out, len(inputs))

	var firstErr error
	for res := range RunInPool(ctx, inputs, worker, maxWorkers) {
		if onDone != nil {
			onDone()
		}
		if res.Error != nil {
			if firstErr == nil {
				firstErr = res.Error
			}
			continue
		}
		out[res.Index] = res.Result
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
