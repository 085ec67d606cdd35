package inbox

import "context"

// optimisticTask is the apply-then-reconcile shape shared by sends and read
// acknowledgements: mutate local state immediately, run the remote call off
// the loop, then post the reconciliation back onto the loop.
type optimisticTask struct {
	apply  func()                          // runs on the loop before the remote call
	remote func(ctx context.Context) error // runs on its own goroutine
	done   func(err error)                 // runs on the loop with the remote result
}

// runTask executes t. apply has already happened by the time runTask
// returns; done is scheduled once the remote call settles.
func (e *Engine) runTask(t optimisticTask) {
	if t.apply != nil {
		t.apply()
	}
	go func() {
		err := t.remote(e.ctx)
		e.post(func() { t.done(err) })
	}()
}
