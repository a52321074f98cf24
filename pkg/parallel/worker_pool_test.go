package parallel

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/cluso-policygraph/pkg/logging"
)

func newPool(t *testing.T, workers int, opts ...Option) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers, opts...)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) failed: %v", workers, err)
	}
	return pool
}

func TestWorkerPoolBasicOperations(t *testing.T) {
	pool := newPool(t, 4)

	executed := false
	if !pool.Submit(func() { executed = true }) {
		t.Error("Task submission failed")
	}
	pool.Close()

	if !executed {
		t.Error("Task was not executed")
	}
}

func TestWorkerPoolSizes(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{16, 16},
	}
	for _, tt := range tests {
		pool := newPool(t, tt.in)
		if pool.Workers() != tt.want {
			t.Errorf("NewWorkerPool(%d) has %d workers, want %d", tt.in, pool.Workers(), tt.want)
		}
		pool.Close()
	}

	if _, err := NewWorkerPool(math.MaxInt); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("expected ErrTooManyWorkers, got %v", err)
	}
}

func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := newPool(t, 10)

	numTasks := 100
	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() { atomic.AddInt64(&counter, 1) })
		}()
	}
	wg.Wait()
	pool.Close()

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := newPool(t, 2)
	pool.Close()
	pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Submit should fail on a closed pool")
	}
	if err := pool.SubmitContext(context.Background(), func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestWorkerPoolSubmitContextCancelled(t *testing.T) {
	pool := newPool(t, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func() {
		close(started)
		<-release
	})
	<-started
	// Fill the queue behind the blocked worker.
	pool.Submit(func() {})
	pool.Submit(func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.SubmitContext(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	close(release)
	pool.Close()
}

func TestWorkerPoolWithPanic(t *testing.T) {
	var buf bytes.Buffer
	pool := newPool(t, 2, WithLogger(logging.NewJSONLogger(&buf, logging.DebugLevel)))

	var ran atomic.Int64
	pool.Submit(func() { panic("boom") })
	pool.Submit(func() { ran.Add(1) })
	pool.Close()

	if ran.Load() != 1 {
		t.Error("pool should keep working after a panic")
	}
	if pool.Panics() != 1 {
		t.Errorf("expected 1 panic, got %d", pool.Panics())
	}
	if !strings.Contains(buf.String(), "worker panic recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}
