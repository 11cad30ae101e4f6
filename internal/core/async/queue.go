package async

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one inbox file handed to a worker.
type Job struct {
	Path        string
	Seq         int // discovery order
	SubmittedAt time.Time
}

// Handler processes one job. It owns the job's outcome; the queue only logs
// that it ran.
type Handler interface {
	Handle(ctx context.Context, job Job)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job)

func (f HandlerFunc) Handle(ctx context.Context, job Job) { f(ctx, job) }

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
