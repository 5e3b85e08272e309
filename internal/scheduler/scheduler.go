// Package scheduler runs named jobs on a fixed interval. Jobs run
// immediately on start and sequentially thereafter; a cycle that overruns
// its interval delays the next tick instead of overlapping it.
package scheduler

import (
	"context"
	"sync"
	"time"

	"fundingflow/logger"
)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler owns a set of named periodic jobs. Starting a name that is
// already running replaces the old job after it finishes its current cycle.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]*job
	log  *logger.Entry
}

func New() *Scheduler {
	return &Scheduler{
		jobs: make(map[string]*job),
		log:  logger.GetLogger().WithComponent("scheduler"),
	}
}

// Start launches fn under the given name. The first run happens immediately.
// If a job with the same name is running it is cancelled and awaited first,
// so at most one instance per name ever runs.
func (s *Scheduler) Start(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		old.cancel()
		<-old.done
	}

	jobCtx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	s.jobs[name] = j
	s.mu.Unlock()

	s.log.WithFields(logger.Fields{"job": name, "interval": interval.String()}).Info("starting job")

	go s.run(jobCtx, name, interval, fn, j)
}

func (s *Scheduler) run(ctx context.Context, name string, interval time.Duration, fn func(context.Context), j *job) {
	defer close(j.done)

	s.invoke(ctx, name, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.WithFields(logger.Fields{"job": name}).Info("job stopped")
			return
		case <-ticker.C:
			s.invoke(ctx, name, fn)
		}
	}
}

// invoke runs one cycle, containing panics so a bad cycle cannot kill the
// job loop.
func (s *Scheduler) invoke(ctx context.Context, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logger.Fields{"job": name, "panic": r}).Error("job cycle panicked")
		}
	}()

	if ctx.Err() != nil {
		return
	}
	fn(ctx)
}

// Stop cancels the named job and waits for its current cycle to finish.
func (s *Scheduler) Stop(name string) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if ok {
		delete(s.jobs, name)
	}
	s.mu.Unlock()

	if ok {
		j.cancel()
		<-j.done
	}
}

// StopAll stops every running job.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	for _, j := range jobs {
		j.cancel()
		<-j.done
	}
}
