// Package workers provides the background loops of the sync client and a
// Workers aggregate that starts and stops them together.
//
// Two workers exist: [SyncScheduler] triggers synchronization sessions on a
// timer, on connectivity and foreground transitions and on explicit kicks;
// [ConnectivityProber] feeds the connectivity monitor with the result of a
// periodic server ping.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Run blocks until ctx is cancelled. A worker that has nothing to do may
// return early.
//
// Example implementation:
//
//	type MyWorker struct{}
//
//	func (w *MyWorker) Run(ctx context.Context) {
//	    <-ctx.Done()
//	}
type Worker interface {
	Run(ctx context.Context)
}
