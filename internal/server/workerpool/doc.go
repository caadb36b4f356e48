// Package workerpool provides a fixed-size goroutine pool with an
// unbounded FIFO queue.
//
// Submit never blocks on worker availability. Stop lets the workers drain
// everything already queued, then waits for them to exit:
//
//	p := workerpool.New(5)
//	_ = p.Submit(func() { ... })
//	p.Stop()
//
// Workers wait on a sync.Cond guarded by the queue mutex; tasks always run
// with the mutex released.
package workerpool
