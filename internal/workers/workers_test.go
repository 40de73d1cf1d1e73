// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countingWorker records how many times Run was entered and left.
type countingWorker struct {
	started atomic.Int32
	stopped atomic.Int32
}

func (w *countingWorker) Run(ctx context.Context) {
	w.started.Add(1)
	<-ctx.Done()
	w.stopped.Add(1)
}

type returningWorker struct {
	ran atomic.Bool
}

func (w *returningWorker) Run(context.Context) {
	w.ran.Store(true)
}

func TestWorkers_StartStop(t *testing.T) {
	w1, w2 := &countingWorker{}, &countingWorker{}
	ws := NewWorkers(w1, w2)

	ws.Start(context.Background())
	assert.True(t, ws.Running())

	assert.Eventually(t, func() bool {
		return w1.started.Load() == 1 && w2.started.Load() == 1
	}, time.Second, 5*time.Millisecond)

	ws.Stop()
	assert.False(t, ws.Running())
	assert.Equal(t, int32(1), w1.stopped.Load())
	assert.Equal(t, int32(1), w2.stopped.Load())
}

func TestWorkers_StartIsIdempotent(t *testing.T) {
	w := &countingWorker{}
	ws := NewWorkers(w)

	ws.Start(context.Background())
	ws.Start(context.Background())
	ws.Stop()

	assert.Equal(t, int32(1), w.started.Load())
}

func TestWorkers_StopWithoutStart(t *testing.T) {
	ws := NewWorkers(&countingWorker{})

	// should not block or panic
	ws.Stop()
	ws.Stop()
}

func TestWorkers_EarlyReturningWorker(t *testing.T) {
	early := &returningWorker{}
	long := &countingWorker{}
	ws := NewWorkers(early, long)

	ws.Start(context.Background())
	assert.Eventually(t, early.ran.Load, time.Second, 5*time.Millisecond)
	ws.Stop()

	assert.Equal(t, int32(1), long.stopped.Load())
}

func TestWorkers_ParentContextCancel(t *testing.T) {
	w := &countingWorker{}
	ws := NewWorkers(w)

	ctx, cancel := context.WithCancel(context.Background())
	ws.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool { return w.stopped.Load() == 1 }, time.Second, 5*time.Millisecond)
	ws.Stop()
}

func TestWorkers_Empty(t *testing.T) {
	ws := NewWorkers()
	ws.Start(context.Background())
	ws.Stop()
}
