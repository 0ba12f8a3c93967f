package framework_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/setanarut/surgsim/framework"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	initOK, startupOK bool
	stopAfter         int32

	initialized atomic.Bool
	started     atomic.Bool
	updates     atomic.Int32
	lastDt      atomic.Value
}

func newCounter() *counter {
	return &counter{initOK: true, startupOK: true}
}

func (c *counter) Initialize() bool {
	c.initialized.Store(true)
	return c.initOK
}

func (c *counter) Startup() bool {
	c.started.Store(true)
	return c.startupOK
}

func (c *counter) Update(dt float64) bool {
	c.lastDt.Store(dt)
	n := c.updates.Add(1)
	return c.stopAfter == 0 || n < c.stopAfter
}

func TestBarrier(t *testing.T) {
	tests := []struct {
		name     string
		results  []bool
		expected bool
	}{
		{"all succeed", []bool{true, true, true, true}, true},
		{"one fails", []bool{true, false, true, true}, false},
		{"single participant", []bool{true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			barrier := framework.NewBarrier(len(tt.results))
			got := make([]bool, len(tt.results))
			var wg sync.WaitGroup
			for i, ok := range tt.results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					got[i] = barrier.Wait(ok)
				}()
			}
			wg.Wait()
			for _, g := range got {
				assert.Equal(t, tt.expected, g)
			}
		})
	}
	assert.Panics(t, func() { framework.NewBarrier(0) })
}

func TestBarrierIsReusable(t *testing.T) {
	barrier := framework.NewBarrier(2)
	done := make(chan bool)
	go func() {
		first := barrier.Wait(false)
		second := barrier.Wait(true)
		done <- first
		done <- second
	}()
	assert.False(t, barrier.Wait(true))
	assert.True(t, barrier.Wait(true))
	assert.False(t, <-done)
	assert.True(t, <-done)
}

func TestSynchronousThread(t *testing.T) {
	c := newCounter()
	thread := framework.NewBasicThread("physics", c)
	thread.SetRate(100)
	thread.SetSynchronous(true)

	errs := make(chan error, 1)
	go func() { errs <- thread.Start(context.Background(), nil) }()

	for range 5 {
		require.True(t, thread.Tick())
	}
	assert.Equal(t, int32(5), c.updates.Load())
	assert.InDelta(t, 0.01, c.lastDt.Load().(float64), 1e-12)
	assert.True(t, thread.IsRunning())

	thread.Stop()
	assert.False(t, thread.Tick())
	require.NoError(t, <-errs)
	assert.False(t, thread.IsRunning())
	assert.Equal(t, int32(5), c.updates.Load())
}

func TestThreadStopsWhenUpdateFails(t *testing.T) {
	c := newCounter()
	c.stopAfter = 3
	thread := framework.NewBasicThread("input", c)
	thread.SetRate(1000)
	require.NoError(t, thread.Start(context.Background(), nil))
	assert.Equal(t, int32(3), c.updates.Load())
}

func TestThreadInvalidRate(t *testing.T) {
	thread := framework.NewBasicThread("bad", newCounter())
	assert.Panics(t, func() { thread.SetRate(0) })
	assert.False(t, thread.Tick())
}

func TestRuntime(t *testing.T) {
	runtime := framework.NewRuntime()
	counters := []*counter{newCounter(), newCounter()}
	for i, c := range counters {
		thread := framework.NewBasicThread([]string{"physics", "behavior"}[i], c)
		thread.SetRate(500)
		runtime.AddThread(thread)
	}
	assert.Len(t, runtime.Threads(), 2)

	require.NoError(t, runtime.Start(context.Background()))
	assert.ErrorIs(t, runtime.Start(context.Background()), framework.ErrRuntimeStarted)
	for _, c := range counters {
		assert.True(t, c.initialized.Load())
		assert.True(t, c.started.Load())
	}

	assert.Eventually(t, func() bool {
		return counters[0].updates.Load() > 2 && counters[1].updates.Load() > 2
	}, time.Second, time.Millisecond)

	require.NoError(t, runtime.Stop())
	for _, thread := range runtime.Threads() {
		assert.False(t, thread.IsRunning())
	}
	require.NoError(t, runtime.Stop())
}

func TestRuntimeInitializationFailure(t *testing.T) {
	runtime := framework.NewRuntime()
	good, bad := newCounter(), newCounter()
	bad.initOK = false
	runtime.AddThread(framework.NewBasicThread("good", good))
	runtime.AddThread(framework.NewBasicThread("bad", bad))

	err := runtime.Start(context.Background())
	assert.ErrorIs(t, err, framework.ErrInitializationFailed)
	assert.False(t, good.started.Load())
	assert.False(t, bad.started.Load())
}

func TestRuntimeStartupFailure(t *testing.T) {
	runtime := framework.NewRuntime()
	bad := newCounter()
	bad.startupOK = false
	runtime.AddThread(framework.NewBasicThread("bad", bad))

	err := runtime.Start(context.Background())
	assert.ErrorIs(t, err, framework.ErrStartupFailed)
	assert.Zero(t, bad.updates.Load())
}
