package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type SchedTestSuite struct {
	suite.Suite
	start time.Time
}

func TestSchedTestSuite(t *testing.T) {
	suite.Run(t, new(SchedTestSuite))
}

func (suite *SchedTestSuite) SetupTest() {
	suite.start = time.Date(2022, time.May, 12, 8, 0, 0, 0, time.UTC)
}

func (suite *SchedTestSuite) TestManualFiresInOrder() {
	m := NewManual(suite.start)

	var fired []string
	m.Every(3*time.Second, func() { fired = append(fired, "poll") })
	m.Every(10*time.Second, func() { fired = append(fired, "tick") })

	m.Advance(10 * time.Second)

	assert.Equal(suite.T(), []string{"poll", "poll", "poll", "tick"}, fired)
	assert.Equal(suite.T(), suite.start.Add(10*time.Second), m.Now())
}

func (suite *SchedTestSuite) TestManualNowDuringTask() {
	m := NewManual(suite.start)

	var seen []time.Time
	m.Every(5*time.Second, func() { seen = append(seen, m.Now()) })
	m.Advance(11 * time.Second)

	assert.Equal(suite.T(), []time.Time{
		suite.start.Add(5 * time.Second),
		suite.start.Add(10 * time.Second),
	}, seen)
}

func (suite *SchedTestSuite) TestManualCancel() {
	m := NewManual(suite.start)

	count := 0
	cancel := m.Every(time.Second, func() { count++ })
	m.Advance(3 * time.Second)
	cancel()
	m.Advance(10 * time.Second)

	assert.Equal(suite.T(), 3, count)
	assert.Equal(suite.T(), 0, m.Pending())
}

func (suite *SchedTestSuite) TestManualCancelFromTask() {
	m := NewManual(suite.start)

	count := 0
	var cancel func()
	cancel = m.Every(time.Second, func() {
		count++
		if count == 2 {
			cancel()
		}
	})
	m.Advance(5 * time.Second)

	assert.Equal(suite.T(), 2, count)
}

func (suite *SchedTestSuite) TestManualAsyncRunsInline() {
	m := NewManual(suite.start)

	var order []string
	m.Async(func(ctx context.Context) func() {
		order = append(order, "work")
		return func() { order = append(order, "apply") }
	})
	m.Async(func(ctx context.Context) func() { return nil })

	assert.Equal(suite.T(), []string{"work", "apply"}, order)
}

func (suite *SchedTestSuite) TestNonPositiveIntervalIgnored() {
	m := NewManual(suite.start)
	ran := 0
	m.Every(0, func() { ran++ })
	m.Every(-time.Second, func() { ran++ })
	m.Advance(time.Minute)

	assert.Equal(suite.T(), 0, ran)
	assert.Equal(suite.T(), 0, m.Pending())

	l := NewLoop(zap.NewNop())
	defer l.Stop()

	cancel := l.Every(-30*time.Second, func() {})
	cancel()
}

func (suite *SchedTestSuite) TestLoopStopsTimers() {
	l := NewLoop(zap.NewNop())

	var mu sync.Mutex
	count := 0
	l.Every(time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	time.Sleep(20 * time.Millisecond)
	l.Stop()

	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(suite.T(), after, count, "task ran after stop")
}

func (suite *SchedTestSuite) TestLoopRecoversPanics() {
	l := NewLoop(zap.NewNop())
	defer l.Stop()

	ran := false
	l.Do(func() { panic("boom") })
	l.Do(func() { ran = true })

	assert.True(suite.T(), ran)
}

func (suite *SchedTestSuite) TestLoopAsyncAppliesOnLoop() {
	l := NewLoop(zap.NewNop())

	done := make(chan struct{})
	l.Async(func(ctx context.Context) func() {
		return func() { close(done) }
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		suite.T().Fatal("continuation never ran")
	}
	l.Stop()

	applied := false
	l.Async(func(ctx context.Context) func() {
		return func() { applied = true }
	})
	assert.False(suite.T(), applied)
}
