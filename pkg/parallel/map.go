package parallel

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dd0wney/cluso-policygraph/pkg/logging"
)

// Map applies fn to every item on a fresh pool of workers and returns the
// results in input order. Every item's error is collected and joined in
// message order. Once
// ctx is done no further items start and ctx's error is included.
// A panicking fn yields an error wrapping ErrTaskPanic for its item.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error), logger logging.Logger) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, ctx.Err()
	}

	pool, err := NewWorkerPool(min(workers, len(items)), WithLogger(logger))
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		task := func() {
			defer func() {
				if r := recover(); r != nil {
					record(fmt.Errorf("item %d: %w: %v", i, ErrTaskPanic, r))
				}
			}()
			if ctx.Err() != nil {
				return
			}
			res, err := fn(ctx, item)
			if err != nil {
				record(fmt.Errorf("item %d: %w", i, err))
				return
			}
			results[i] = res
		}
		if err := pool.SubmitContext(ctx, task); err != nil {
			break
		}
	}
	pool.Close()

	slices.SortFunc(errs, func(a, b error) int { return cmp.Compare(a.Error(), b.Error()) })
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}
