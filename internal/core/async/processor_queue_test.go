package async

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorQueue_SingleWorkerKeepsOrder(t *testing.T) {
	var (
		mu  sync.Mutex
		got []int
	)
	q := NewProcessorQueue(context.Background(), HandlerFunc(func(_ context.Context, job Job) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, job.Seq)
	}), nil, WithWorkers(1))

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Seq: i}))
	}
	q.Shutdown(context.Background())

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestProcessorQueue_BoundsConcurrency(t *testing.T) {
	var inFlight, peak, total atomic.Int32
	q := NewProcessorQueue(context.Background(), HandlerFunc(func(context.Context, Job) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		total.Add(1)
	}), nil, WithWorkers(3))

	for i := 0; i < 12; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Seq: i}))
	}
	q.Shutdown(context.Background())

	assert.EqualValues(t, 12, total.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestProcessorQueue_TimeoutAppliesPerJob(t *testing.T) {
	var deadlineSet atomic.Bool
	q := NewProcessorQueue(context.Background(), HandlerFunc(func(ctx context.Context, _ Job) {
		_, ok := ctx.Deadline()
		deadlineSet.Store(ok)
	}), nil, WithWorkers(1), WithProcessTimeout(time.Minute))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "a.pdf"}))
	q.Shutdown(context.Background())
	assert.True(t, deadlineSet.Load())
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(context.Background(), HandlerFunc(func(context.Context, Job) {}), nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "late.pdf"}), ErrQueueClosed)
}
