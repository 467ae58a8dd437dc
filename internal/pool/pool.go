// Package pool runs independent tasks on a bounded set of workers whose size
// can shrink while the run is in progress.
package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"bilifollow/pkg/logger"
)

// Task is one unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the outcome of one task: either a value or an error.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps a task error.
func Fail[T any](err error) Result[T] { return Result[T]{err: err} }

// IsOk reports whether the task succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the task value; the zero value when the task failed.
func (r Result[T]) Value() T { return r.value }

// Err returns the task error, if any.
func (r Result[T]) Err() error { return r.err }

// Limit is the concurrency ceiling, read before every claim.
type Limit interface {
	Limit() int
}

// Fixed is a constant Limit.
type Fixed int

// Limit returns n.
func (f Fixed) Limit() int { return int(f) }

// Run executes every task exactly once and returns their results in input
// order. It starts min(limit, len(tasks)) workers. Before claiming its next
// task, worker i exits if the ceiling has dropped to i or below; worker 0
// always stays, so lowering the ceiling never stalls the run and never
// interrupts a task that already started. Task errors and panics are stored
// in the task's slot. Once ctx is done, unclaimed tasks are not started and
// their slots hold ctx.Err().
func Run[T any](ctx context.Context, tasks []Task[T], limit Limit, log logger.Logger) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	workers := limit.Limit()
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}

	log.DebugWithFields("Starting worker pool", map[string]interface{}{
		"workers": workers,
		"tasks":   len(tasks),
	})

	var next atomic.Int64
	var g errgroup.Group
	for id := 0; id < workers; id++ {
		g.Go(func() error {
			for {
				if id > 0 && id >= limit.Limit() {
					log.DebugWithFields("Worker retired", map[string]interface{}{
						"worker_id": id,
						"limit":     limit.Limit(),
					})
					return nil
				}

				i := int(next.Add(1) - 1)
				if i >= len(tasks) {
					return nil
				}

				if err := ctx.Err(); err != nil {
					results[i] = Fail[T](err)
					continue
				}
				results[i] = runTask(ctx, tasks[i])
			}
		})
	}
	// Workers never return errors; Wait is the join point.
	_ = g.Wait()

	return results
}

func runTask[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail[T](fmt.Errorf("task panicked: %v", r))
		}
	}()

	v, err := task(ctx)
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}
