package framework

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrRuntimeStarted = errors.New("framework: runtime already started")

// Runtime starts a set of threads so that none of them enters its update
// loop before all the others initialized and started up.
type Runtime struct {
	Logger *slog.Logger

	mu      sync.Mutex
	threads []*BasicThread
	group   *errgroup.Group
	cancel  context.CancelFunc
}

func NewRuntime() *Runtime {
	return &Runtime{Logger: slog.Default()}
}

func (r *Runtime) AddThread(thread *BasicThread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads = append(r.threads, thread)
}

func (r *Runtime) Threads() []*BasicThread {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.threads
}

// Start launches every thread and returns once all of them are running.
// If a thread fails to initialize or start up, every thread is released and
// the first error is returned.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.group != nil {
		return ErrRuntimeStarted
	}

	ctx, r.cancel = context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(ctx)
	r.group = group

	barrier := NewBarrier(len(r.threads) + 1)
	for _, thread := range r.threads {
		group.Go(func() error {
			return thread.Start(groupCtx, barrier)
		})
	}

	if !barrier.Wait(true) {
		r.Logger.Error("runtime initialization failed")
		return r.stop()
	}
	if !barrier.Wait(true) {
		r.Logger.Error("runtime startup failed")
		return r.stop()
	}
	r.Logger.Info("runtime started", "threads", len(r.threads))
	return nil
}

// Stop requests every thread to stop and waits for them.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.group == nil {
		return nil
	}
	return r.stop()
}

func (r *Runtime) stop() error {
	for _, thread := range r.threads {
		thread.Stop()
	}
	r.cancel()
	err := r.group.Wait()
	r.group = nil
	return err
}
