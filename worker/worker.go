package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Worker long-running worker
type Worker interface {
	Run(ctx context.Context) error
}

// TickWorker loops onTick until the context is done, backing off to
// ErrDelay after a failed tick
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

// StartTick start the tick loop
func (w *TickWorker) StartTick(ctx context.Context, onTick func(ctx context.Context) error) error {
	dur := time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
			if err := onTick(ctx); err != nil {
				dur = w.errDelay()
			} else {
				dur = w.delay()
			}
		}
	}
}

func (w *TickWorker) delay() time.Duration {
	if w.Delay > 0 {
		return w.Delay
	}
	return time.Second
}

func (w *TickWorker) errDelay() time.Duration {
	if w.ErrDelay > 0 {
		return w.ErrDelay
	}
	return 3 * time.Second
}

// IJob job的接口
type IJob interface {
	Start() error
	Run()
	Stop() error
}

type OnWork func() error

// BaseJob cron-backed job
type BaseJob struct {
	Cron      *cron.Cron
	IsRunning bool
	OnWork    OnWork
}

func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

func (job *BaseJob) Stop() error {
	job.Cron.Stop()
	return nil
}

func (job *BaseJob) Run() {
	if job.IsRunning {
		return
	}

	job.IsRunning = true

	job.OnWork()

	job.IsRunning = false
}
