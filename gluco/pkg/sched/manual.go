package sched

import (
	"context"
	"time"
)

// Manual is a virtual-time Scheduler. Time only moves on Advance, and every
// task runs synchronously on the caller's goroutine, so it must be driven from
// a single goroutine.
type Manual struct {
	now   time.Time
	tasks []*manualTask
	seq   int
}

type manualTask struct {
	seq       int
	next      time.Time
	interval  time.Duration
	fn        func()
	cancelled bool
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) Every(interval time.Duration, task func()) func() {
	if interval <= 0 {
		return func() {}
	}
	m.seq++
	t := &manualTask{
		seq:      m.seq,
		next:     m.now.Add(interval),
		interval: interval,
		fn:       task,
	}
	m.tasks = append(m.tasks, t)
	return func() { t.cancelled = true }
}

func (m *Manual) Do(fn func()) {
	fn()
}

func (m *Manual) Async(work func(ctx context.Context) func()) {
	if next := work(context.Background()); next != nil {
		next()
	}
}

// Advance moves time forward by d, firing due tasks in time order. Tasks due
// at the same instant fire in registration order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.next
		t.next = t.next.Add(t.interval)
		t.fn()
	}
	m.now = target
}

// Pending returns the number of live timers.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(target time.Time) *manualTask {
	live := m.tasks[:0]
	var due *manualTask
	for _, t := range m.tasks {
		if t.cancelled {
			continue
		}
		live = append(live, t)
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.seq < due.seq) {
			due = t
		}
	}
	m.tasks = live
	return due
}
