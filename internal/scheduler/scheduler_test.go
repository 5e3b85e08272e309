package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartRunsImmediately(t *testing.T) {
	s := New()
	defer s.StopAll()

	var runs atomic.Int32
	s.Start(context.Background(), "job", time.Hour, func(context.Context) {
		runs.Add(1)
	})

	waitFor(t, func() bool { return runs.Load() == 1 })
}

func TestStartReplacesRunningJob(t *testing.T) {
	s := New()
	defer s.StopAll()

	var first, second atomic.Int32
	ctx := context.Background()

	s.Start(ctx, "job", 10*time.Millisecond, func(context.Context) { first.Add(1) })
	waitFor(t, func() bool { return first.Load() >= 1 })

	s.Start(ctx, "job", 10*time.Millisecond, func(context.Context) { second.Add(1) })
	waitFor(t, func() bool { return second.Load() >= 2 })

	// The first job must be fully stopped; its counter should not move.
	got := first.Load()
	time.Sleep(50 * time.Millisecond)
	if first.Load() != got {
		t.Error("replaced job kept running")
	}
}

func TestCyclesDoNotOverlap(t *testing.T) {
	s := New()
	defer s.StopAll()

	var concurrent, maxConcurrent atomic.Int32
	s.Start(context.Background(), "job", time.Millisecond, func(context.Context) {
		n := concurrent.Add(1)
		if n > maxConcurrent.Load() {
			maxConcurrent.Store(n)
		}
		time.Sleep(5 * time.Millisecond)
		concurrent.Add(-1)
	})

	time.Sleep(50 * time.Millisecond)
	if maxConcurrent.Load() > 1 {
		t.Errorf("cycles overlapped, max concurrency %d", maxConcurrent.Load())
	}
}

func TestJobSurvivesPanic(t *testing.T) {
	s := New()
	defer s.StopAll()

	var runs atomic.Int32
	s.Start(context.Background(), "job", 5*time.Millisecond, func(context.Context) {
		runs.Add(1)
		panic("cycle failure")
	})

	waitFor(t, func() bool { return runs.Load() >= 3 })
}

func TestStopWaitsForCycle(t *testing.T) {
	s := New()

	started := make(chan struct{})
	finished := make(chan struct{})
	s.Start(context.Background(), "job", time.Hour, func(context.Context) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		close(finished)
	})

	<-started
	s.Stop("job")

	select {
	case <-finished:
	default:
		t.Error("Stop returned before the running cycle finished")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
