package workerpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corvidsystems/bridge/internal/workerpool"
	"github.com/stretchr/testify/assert"
)

func TestNewClampsToMinWorkers(t *testing.T) {
	p := workerpool.New(0)
	defer p.Shutdown()
	assert.GreaterOrEqual(t, p.Size(), workerpool.MinWorkers)
}

func TestSubmitRunsAllTasks(t *testing.T) {
	p := workerpool.New(4)
	defer p.Shutdown()

	const n = 200
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		p.Submit(func() {
			count.Add(1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}
	assert.EqualValues(t, n, count.Load())
}

func TestShutdownDrainsQueueBeforeReturning(t *testing.T) {
	p := workerpool.New(2)
	var ran atomic.Bool
	p.Submit(func() {
		time.Sleep(10 * time.Millisecond)
		ran.Store(true)
	})
	p.Shutdown()
	assert.True(t, ran.Load())
}

func TestSubmitAfterShutdownIsNoop(t *testing.T) {
	p := workerpool.New(2)
	p.Shutdown()

	var ran atomic.Bool
	assert.NotPanics(t, func() {
		p.Submit(func() { ran.Store(true) })
	})
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran.Load())
}
