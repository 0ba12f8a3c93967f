package framework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

var (
	ErrInitializationFailed = errors.New("framework: initialization failed")
	ErrStartupFailed        = errors.New("framework: startup failed")
)

// ThreadDelegate is the work a BasicThread runs.
type ThreadDelegate interface {
	// Initialize runs before the first barrier.
	Initialize() bool
	// Startup runs after every thread initialized.
	Startup() bool
	// Update runs once per tick; returning false stops the thread.
	Update(dt float64) bool
}

// BasicThread runs a ThreadDelegate at a fixed rate.
//
// Start goes through three phases: initialize, wait on the barrier, startup,
// wait on the barrier again and then the update loop. A stop request is only
// looked at between two updates, an update is never cut short.
type BasicThread struct {
	Logger *slog.Logger

	name     string
	delegate ThreadDelegate
	period   time.Duration

	synchronous   bool
	running       atomic.Bool
	stopRequested atomic.Bool
	tick          chan struct{}
	ticked        chan struct{}
	done          chan struct{}
}

// NewBasicThread returns a thread running at 30Hz.
func NewBasicThread(name string, delegate ThreadDelegate) *BasicThread {
	return &BasicThread{
		Logger:   slog.Default(),
		name:     name,
		delegate: delegate,
		period:   time.Second / 30,
		tick:     make(chan struct{}),
		ticked:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (t *BasicThread) Name() string { return t.name }

// SetRate sets the update frequency in Hz.
func (t *BasicThread) SetRate(hz float64) {
	if hz <= 0 {
		panic(fmt.Sprintf("framework: invalid rate %v for thread %s", hz, t.name))
	}
	t.period = time.Duration(float64(time.Second) / hz)
}

// Period is the fixed time step handed to every update.
func (t *BasicThread) Period() time.Duration { return t.period }

// SetSynchronous makes the thread wait for Tick instead of its own clock.
// Must be called before Start.
func (t *BasicThread) SetSynchronous(synchronous bool) {
	t.synchronous = synchronous
}

func (t *BasicThread) IsSynchronous() bool { return t.synchronous }

func (t *BasicThread) IsRunning() bool { return t.running.Load() }

// Stop asks the thread to leave its loop before the next update.
func (t *BasicThread) Stop() {
	t.stopRequested.Store(true)
}

// Tick runs one update of a synchronous thread and waits for it to finish.
// It returns false once the thread is not running anymore or when the thread
// is not synchronous.
func (t *BasicThread) Tick() bool {
	if !t.synchronous {
		return false
	}
	select {
	case t.tick <- struct{}{}:
	case <-t.done:
		return false
	}
	select {
	case <-t.ticked:
		return true
	case <-t.done:
		return false
	}
}

// Start runs the thread until ctx is cancelled, Stop is called or an update
// returns false. barrier may be nil when the thread runs on its own.
func (t *BasicThread) Start(ctx context.Context, barrier *Barrier) error {
	defer close(t.done)

	ok := t.delegate.Initialize()
	if barrier != nil {
		ok = barrier.Wait(ok)
	}
	if !ok {
		return fmt.Errorf("%s: %w", t.name, ErrInitializationFailed)
	}

	ok = t.delegate.Startup()
	if barrier != nil {
		ok = barrier.Wait(ok)
	}
	if !ok {
		return fmt.Errorf("%s: %w", t.name, ErrStartupFailed)
	}

	t.running.Store(true)
	defer t.running.Store(false)
	t.Logger.Info("thread started", "thread", t.name, "period", t.period, "synchronous", t.synchronous)

	var wake <-chan time.Time
	var tick <-chan struct{}
	if t.synchronous {
		tick = t.tick
	} else {
		ticker := time.NewTicker(t.period)
		defer ticker.Stop()
		wake = ticker.C
	}

	dt := t.period.Seconds()
	for !t.stopRequested.Load() {
		select {
		case <-ctx.Done():
			t.Logger.Info("thread cancelled", "thread", t.name)
			return nil
		case <-wake:
		case <-tick:
		}

		if t.stopRequested.Load() {
			break
		}
		keepRunning := t.delegate.Update(dt)
		if t.synchronous {
			t.ticked <- struct{}{}
		}
		if !keepRunning {
			break
		}
	}
	t.Logger.Info("thread stopped", "thread", t.name)
	return nil
}
