package sched

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs every piece of dashboard state mutation on one logical
// thread. Tasks passed to Every and Do, and continuations returned from Async
// work, never run concurrently with each other.
type Scheduler interface {
	// Every runs task each interval until cancel is called. A non-positive
	// interval schedules nothing.
	Every(interval time.Duration, task func()) (cancel func())
	// Do runs fn on the loop and returns once it has run. It must not be
	// called from inside a task.
	Do(fn func())
	// Async runs work off the loop and then applies the continuation it
	// returns on the loop. A nil continuation is skipped.
	Async(work func(ctx context.Context) func())
	Now() time.Time
}

// Loop is the wall-clock Scheduler.
type Loop struct {
	Logger *zap.Logger

	mu     sync.Mutex // Held while a task runs.
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	stateMu sync.Mutex
	stopped bool
}

func NewLoop(logger *zap.Logger) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{Logger: logger, ctx: ctx, cancel: cancel}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) Every(interval time.Duration, task func()) func() {
	ctx, cancel := context.WithCancel(l.ctx)
	if interval <= 0 {
		l.Logger.Error("refusing timer with non-positive interval", zap.Duration("interval", interval))
		return cancel
	}

	l.stateMu.Lock()
	if l.stopped {
		l.stateMu.Unlock()
		return cancel
	}
	l.wg.Add(1)
	l.stateMu.Unlock()

	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.run(ctx, task)
			}
		}
	}()

	return cancel
}

func (l *Loop) Do(fn func()) {
	l.run(context.Background(), fn)
}

func (l *Loop) Async(work func(ctx context.Context) func()) {
	l.stateMu.Lock()
	if l.stopped {
		l.stateMu.Unlock()
		return
	}
	l.wg.Add(1)
	l.stateMu.Unlock()

	go func() {
		defer l.wg.Done()
		next := work(l.ctx)
		if next != nil {
			l.run(l.ctx, next)
		}
	}()
}

// Stop cancels every timer and pending continuation, and waits for in-flight
// ones to return. Nothing scheduled runs after Stop returns.
func (l *Loop) Stop() {
	l.stateMu.Lock()
	l.stopped = true
	l.stateMu.Unlock()

	l.cancel()
	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A tick can race with cancel; re-check under the lock.
	if l.isStopped() || ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.Logger.Warn("recovered from panic in scheduled task", zap.Any("panic", r))
		}
	}()
	fn()
}

func (l *Loop) isStopped() bool {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.stopped
}
