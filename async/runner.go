// Package async runs functions in goroutines and delivers their results as
// callbacks on the goroutine that owns the Runner.
package async

// Runner spawns goroutines for functions and associates callbacks with them,
// building on Mailbox.
//
//	runner := async.NewRunner()
//	runner.RunAsync(func() error { return exec.Run(ctx, job) }, func(err error) {
//	  // runs inside ProcessMessages, on the owner's goroutine
//	})
//	for runner.NumRunning() > 0 {
//	  <-runner.Ready()
//	  runner.ProcessMessages()
//	}
type Runner struct {
	bx *Mailbox
}

func NewRunner() Runner {
	return Runner{bx: NewMailbox()}
}

// NumRunning counts functions whose callbacks have not been invoked yet.
func (r *Runner) NumRunning() int {
	return r.bx.Count()
}

// RunAsync runs f in a new goroutine. cb is invoked with f's result by the
// first ProcessMessages call after f returns.
func (r *Runner) RunAsync(f func() error, cb AsyncErrorResponseHandler) {
	asyncErr := r.bx.NewAsyncError(cb)
	go func(rsp *AsyncError) {
		rsp.SetValue(f())
	}(asyncErr)
}

// Ready fires after a function completed; see Mailbox.Ready.
func (r *Runner) Ready() <-chan struct{} {
	return r.bx.Ready()
}

// ProcessMessages invokes callbacks of completed functions synchronously.
func (r *Runner) ProcessMessages() {
	r.bx.ProcessMessages()
}
