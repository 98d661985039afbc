package server

//go:generate mockgen -source=executor.go -package=server -destination=executor_mock.go

import (
	"context"
	"time"

	"github.com/twitter/sjf/scheduler/domain"
)

// Executor performs a dispatched job. Run blocks until the job is done or
// ctx is cancelled. The job is marked Completed when Run returns regardless
// of the error, which is only logged.
type Executor interface {
	Run(ctx context.Context, job domain.Job) error
}

// TimerExecutor simulates work by waiting out the job's remaining duration.
type TimerExecutor struct {
	now func() time.Time
}

func NewTimerExecutor() *TimerExecutor {
	return &TimerExecutor{now: time.Now}
}

func (e *TimerExecutor) Run(ctx context.Context, job domain.Job) error {
	d := job.Remaining(e.now())
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
